/*
Package server provides the HTTP JSON API of the VAT engine.
Handlers take an application-specific state object (used for dependency injection)
and a [Ctx] object which wraps the request and contains some utility functions.

Basic example:

	api := server.NewAPI(customers)
	s := server.New(api, cfg)
	s.AttachDefaultMiddleware()
	server.Routes(s)

	log.Fatal(s.Start(context.Background(), nil))

Routes:

	GET  /ping                 liveness check
	GET  /vat                  determine VAT from query parameters (country, postal_code, address, tax_id, validated)
	POST /vat                  determine VAT from a JSON tax profile
	GET  /vat/amounts          VAT amounts of a subtotal, for a rate or a tax profile
	GET  /vat/net              net amount of a gross amount at a rate
	GET  /address              parse a free-text address
	GET  /customers/{id}/vat   determine VAT of a stored customer
	GET  /metrics              prometheus metrics
*/
package server
