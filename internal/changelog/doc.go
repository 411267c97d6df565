// Package changelog parses markdown release notes into versions and
// categorized items.
//
// This package implements:
//   - line-oriented markdown parsing ("## 1.2.3 - date" headers, "-"/"*" bullets)
//   - keyword categorization of items (breaking, removal, fix, feature, other)
//   - version lookup and digests used as cache fingerprints
//   - spoken summaries and audio labels for a version
//   - markdown re-rendering and colored terminal output
//   - HTML changelog pages converted to the same markdown shape
//
// Parsing never fails: text that is not a version header or a bullet inside
// a version is ignored.
package changelog
