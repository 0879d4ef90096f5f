// Package qboclient is the primary entry point for constructing a QuickBooks
// Online connector that implements the qbo.Connector interface.
//
// It layers configuration, HTTP transport and the OAuth2 token lifecycle on
// top of the interfaces and types defined in the qbo package.
//
// Quick start
//
//	conn, err := qboclient.NewWithStore(&qbo.Config{
//	  ClientID:     os.Getenv("QBO_CLIENT_ID"),
//	  ClientSecret: os.Getenv("QBO_CLIENT_SECRET"),
//	  RedirectURI:  "https://example.com/callback",
//	}, credstore.NewFileStore(path))
//	if err != nil { log.Fatal(err) }
//
//	customer, _ := conn.Accounting().Entity("Customer")
//	out, err := customer.Reader.Get(ctx, "58", nil)
//
// Token refreshes are persisted to the store as they happen, so the next
// process start picks up the latest refresh token.
package qboclient
