// Package config loads runtime configuration for the XConnect CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Environment variables (XCONNECT_SERVER_ADDR, XCONNECT_ACCESS_TOKEN,
//     XCONNECT_REQUEST_TIMEOUT).
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the backend gRPC endpoint
//	-t string   access token
//	-w int      request timeout (seconds)
//
// # JSON schema
//
// Durations accept strings like "15s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "access_token": "eyJ...",
//	  "request_timeout": "15s"
//	}
package config
