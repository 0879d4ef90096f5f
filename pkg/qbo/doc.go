// Package qbo provides types, interfaces, and helpers for working with the
// QuickBooks Online accounting API.
//
// # Overview
//
// The qbo package defines the entity registry, the per-entity operation
// interfaces (Creator, Reader, Updater, Deleter, Querier, Reporter), the
// credential model and the error taxonomy. A concrete connector is provided
// by the qboclient package, which wires configuration, transport and the
// OAuth2 token lifecycle.
//
// Getting a connector
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/apigrate/quickbooks/pkg/qbo"
//	  "github.com/apigrate/quickbooks/pkg/qboclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  conn, err := qboclient.New(&qbo.Config{
//	    ClientID:     "id",
//	    ClientSecret: "secret",
//	    RedirectURI:  "https://example.com/callback",
//	    AccessToken:  "...",
//	    RefreshToken: "...",
//	    RealmID:      "123145",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  item, _ := conn.Accounting().Entity("Item")
//	  items, err := item.Querier.Query(ctx, "", nil) // select * from Item
//	  if err != nil { log.Fatal(err) }
//	  _ = items
//	}
//
// # Capabilities
//
// Each Entity exposes only the operations its descriptor declares. An
// unsupported operation is a nil field, so callers check before calling:
//
//	if e.Deleter == nil { /* Item cannot be deleted */ }
//
// # Errors
//
// A 401 is answered by one token refresh and one replay. A second 401 is
// returned as an *APIError with StatusCode 401. Rate limiting surfaces as
// *ThrottlingError, which also matches *APIError with errors.As. Missing or
// rejected credentials surface as *CredentialsError.
//
//	if qbo.IsCredentialsError(err) { /* send the user through consent again */ }
package qbo
