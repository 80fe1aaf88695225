// Package textutil normalizes anime titles and scores how alike two titles are.
//
// Normalize lower-cases a title, keeps only ASCII letters, digits, and
// whitespace, and collapses whitespace runs. Similarity compares two
// normalized titles by Levenshtein edit distance scaled by the longer length,
// so identical normalized forms always score 1.0.
package textutil
