// # swiftdsv: A Streaming DSV Parsing Engine for Go
//
// swiftdsv parses arbitrary-sized chunks of delimiter-separated text into
// row records without buffering an entire file, overlapping disk I/O with
// parsing through a bounded producer/consumer pipeline.
//
// # Components
//
// - A chunk-boundary-correct byte-stream parser (Parser) with RFC 4180-ish
//   quoting semantics.
// - A zero-copy row representation (Row) storing one buffer plus field
//   offsets rather than a vector of owned strings.
// - A mutex+condvar bounded ingestion pipeline overlapping file reads with
//   parsing.
// - A lightweight field-type classifier (Classify) used for column
//   statistics hooks and on-demand typed field retrieval.
// - A two-stage delimiter/header-row autodetector (GuessFormat).
//
// # Getting Started
//
// The module path is `github.com/oleg578/swiftdsv`. Import it directly when
// working inside this repository or adjust the module path to match your
// fork or remote.
package swiftdsv
