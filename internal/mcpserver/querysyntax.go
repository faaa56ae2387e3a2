package mcpserver

// QuerySyntax describes how search_files interprets a query.
const QuerySyntax = `# filecat Query Syntax

A query is matched case-insensitively against the catalog of scanned files.

## Rules

1. Queries shorter than 2 characters return nothing.
2. A query starting with "." is an extension filter: ".md" returns every
   record whose extension is exactly ".md", all with score 0.
3. Any other query matches file names, derived titles, extracted text
   content and path segments longer than two characters. Partial words
   match ("repo" finds "report.txt").

## Scoring

| Signal                     | Points |
|----------------------------|--------|
| name equals the query      | 100    |
| name contains the query    | 50     |
| title contains the query   | 30     |
| content contains the query | 10     |

Signals add up. A record matched only through its directory path scores 0.
Results are ordered by score, then directories before files, then by name.

## Content

Text files up to 5 MiB are read and stored (truncated to 100 KiB).
PDF and Office documents are catalogued by name only; their content is a
one-line summary.
`
