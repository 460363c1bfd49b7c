package milvus

import (
	"fmt"
	"strings"
)

// TagFilterExpr builds a boolean filter matching chunks whose JSON-encoded
// tag column contains any of the given tags. Matching is substring-based
// against the stored `["a","b"]` text, so a filter for "net" also matches a
// chunk tagged "network".
// TODO: switch the tags column to a Milvus JSON field and use
// json_contains for exact membership once the corpus is reindexed.
func TagFilterExpr(tags []string) string {
	var clauses []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		tag = strings.ReplaceAll(tag, `\`, ``)
		tag = strings.ReplaceAll(tag, `"`, ``)
		tag = strings.ReplaceAll(tag, `'`, ``)
		if tag == "" {
			continue
		}
		clauses = append(clauses, fmt.Sprintf(`%s like '%%"%s"%%'`, FieldTags, tag))
	}
	return strings.Join(clauses, " or ")
}
