// Judgment runs requests through a layered decision pipeline: a structure
// learner that short-circuits familiar requests, a policy gate of ordered
// rules, and the wrapped model. Every decision is appended to an audit log.
//
// Usage:
//
//	# Decide newline-delimited JSON requests from stdin
//	judgment run < requests.jsonl
//
//	# Use a custom configuration file and print what the learner knows
//	judgment run --config /etc/judgment.yaml --learner-summary < requests.jsonl
//
//	# Validate a rules file
//	judgment rules validate rules.yaml
//
//	# Evaluate one request against the gate only
//	judgment rules eval --request '{"category":"hr","sensitivity":"high"}'
//
//	# Query the audit log
//	judgment audit query --gate-action HOLD --format csv
//
//	# Show version information
//	judgment version
package main

func main() {
	Execute()
}
