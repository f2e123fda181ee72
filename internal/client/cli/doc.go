// Package cli implements the XConnect command-line client.
//
// Each invocation runs one command against the gRPC server:
//
//	connect-github                     prompt for a token and submit it
//	connect-servicenow                 prompt for instance URL, user and password
//	revoke <provider>                  revoke the active credential
//	integrations                       list connection status per provider
//	suggest [-save] [-label L] <repo> <table>
//	                                   propose a field mapping, optionally saving it
//	validate <mapping-id>              check a saved mapping against live schemas
//	mappings                           list saved mappings
//	repos [-n N]                       list repositories the GitHub credential reaches
//	tables [-n N]                      list ServiceNow tables
//
// Secrets are read from the terminal without echo and never printed.
package cli
