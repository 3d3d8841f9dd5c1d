// Package ws streams analysis progress over WebSocket.
//
// A client sends {"type":"analyze","code":"..."} and receives a "status"
// message carrying the Checking result followed by a "result" message with
// the terminal one. {"type":"ping"} is answered with "pong".
package ws
