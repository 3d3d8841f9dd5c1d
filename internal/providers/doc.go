// Package providers groups the capabilities the analysis service builds on.
//
// Available Providers:
//   - sandbox: isolated goja contexts for running snippets, pooled
//   - assistant: remote chat-completion client for code questions
//   - tips: embedded catalog of debugging tips
//
// Each provider lives in its own package and is wired together by the server.
package providers
