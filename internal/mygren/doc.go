// Package mygren implements the client for the Mygren heat pump's local
// REST API (MaR v4+ firmware).
//
// The heat pump exposes an HTTPS API (lighttpd + PHP) authenticated with
// JWT bearer tokens. Most installations ship self-signed certificates, so
// TLS verification is disabled by default and can be enabled in config.
//
// Protocol specifics:
//   - POST /api/login {"username","password"} returns {"token": "<jwt>"}
//   - All other endpoints require an Authorization: Bearer header
//   - On 401 the client clears its token, re-authenticates, and retries
//     the request exactly once
//   - PUT payloads use the last URL path segment as the JSON key:
//     PUT /api/tuv/set sends {"set": 43}
//   - Boolean values are wire-encoded as 0/1 integers
//
// The client proactively re-authenticates shortly before the token's exp
// claim so that steady-state polling rarely hits the 401 path at all.
//
// Usage:
//
//	client := mygren.New(cfg.HeatPump)
//	tel, err := client.TestConnection(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(tel.Float("Tint"))
package mygren
