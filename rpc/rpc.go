/*
 * MIT License
 *
 * Copyright (c) 2019 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package rpc is a request/response layer on top of one messagelink.Link:
// a client sends one JSON request per round trip and blocks for the
// matching reply, and a server dispatches each inbound request to a
// Handler and writes back either the handler's result or a
// {"status":"error","message":...} envelope.
package rpc

import (
	"encoding/json"

	"rcom/messagelink"
	rerr "rcom/rerrors"
)

// Handler executes one RPC method call and returns the JSON result to
// send back, or an error to report to the caller.
type Handler func(method string, params json.RawMessage) (any, error)

// Request is the JSON shape sent by Client.Call.
type Request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// errorEnvelope is the JSON shape a Server writes back when Handler
// returns an error, matching the original implementation's
// {"status": "error", "message": ...} reply.
type errorEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Client issues RPC calls over a single messagelink.Link. A Client is
// not safe for concurrent Call invocations, since the link only
// supports one request in flight at a time.
type Client struct {
	link *messagelink.Link
}

// NewClient wraps an already-dialed Link as an RPC client.
func NewClient(link *messagelink.Link) *Client {
	return &Client{link: link}
}

// Call sends method and params as one request and blocks for the
// matching reply. It returns an error if the transport fails or the
// server replies with a {"status":"error"} envelope.
func (c *Client) Call(method string, params any) (json.RawMessage, error) {
	encodedParams, err := json.Marshal(params)
	if err != nil {
		return nil, rerr.Newf(rerr.InvalidArgument.Uint16(), "rpc: marshaling params: %v", err)
	}

	req := Request{Method: method, Params: encodedParams}
	if err := c.link.SendObj(req); err != nil {
		return nil, err
	}

	reply, err := c.link.ReadMessage()
	if err != nil {
		return nil, err
	}

	var probe errorEnvelope
	if err := json.Unmarshal(reply, &probe); err == nil && probe.Status == "error" {
		return nil, rerr.Newf(rerr.RPCError.Uint16(), "rpc: %s", probe.Message)
	}

	return reply, nil
}

// Close releases the underlying link.
func (c *Client) Close() error {
	return c.link.Close(1000)
}

// Server dispatches inbound requests on a Link to a Handler and writes
// back the JSON result or an error envelope. Attach it to a link with
// Serve, typically from a messagehub's onconnect callback.
type Server struct {
	handler Handler
}

// NewServer wraps handler as the dispatch target for every request
// received on links passed to Serve.
func NewServer(handler Handler) *Server {
	return &Server{handler: handler}
}

// Serve is the onmessage callback to hand to link.Listen: it decodes
// each inbound frame as a Request, invokes the handler, and replies
// on the same link.
func (s *Server) Serve(link *messagelink.Link, msg json.RawMessage) {
	var req Request
	if err := json.Unmarshal(msg, &req); err != nil {
		_ = link.SendObj(errorEnvelope{Status: "error", Message: "rpc: malformed request"})
		return
	}

	result, err := s.handler(req.Method, req.Params)
	if err != nil {
		_ = link.SendObj(errorEnvelope{Status: "error", Message: err.Error()})
		return
	}

	_ = link.SendObj(result)
}
