// Package llm provides language model clients and the product research,
// OKPD2 advice and rejection suggestion oracles built on them. It supports
// OpenAI and Anthropic with rate limiting and retry.
package llm
