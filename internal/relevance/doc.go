// Package relevance decides which Reddit posts are about AI in hiring.
//
// A Gate sends a batch of post titles and bodies to a Classifier in a
// single call and maps the free-text answer back to one boolean per post.
// Answer parsing accepts, in order of preference:
//
//  1. a JSON object {"answers": ["yes", "no", ...]}
//  2. indexed lines such as "1: yes" or "2. no"
//  3. bare yes/no tokens separated by commas or newlines
//
// Any other shape, or an answer count different from the batch size, is a
// mismatch. The gate fails safe: on a mismatch or a classifier error every
// post in the batch is rejected and the error is returned for logging.
package relevance
