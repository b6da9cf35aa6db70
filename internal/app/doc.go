// Package app composes the marketplace services into a running application.
//
// The package is a composition layer, not a business logic layer. Business
// rules live in internal/app/services/; this package wires them to storage
// and exposes the result to the HTTP layer.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Application struct and service wiring
//	├── domain/             # Domain models (pure data structures)
//	│   ├── user/           # Accounts and role profiles
//	│   ├── listing/        # Listings and their locations
//	│   └── application/    # Traveler applications
//	├── storage/            # Storage interfaces and implementations
//	│   ├── interfaces.go   # Store interfaces
//	│   ├── memory/         # In-memory implementation for tests and dev
//	│   └── postgres/       # PostgreSQL implementation for production
//	├── services/           # Business logic (identity, listings, ...)
//	├── httpapi/            # HTTP handlers and routing
//	├── runtime/            # Process lifecycle: config, db, HTTP server
//	└── metrics/            # Prometheus collectors
//
// # Adding a New Domain
//
//  1. Create domain models in internal/app/domain/<name>/
//  2. Add a store interface to internal/app/storage/interfaces.go
//  3. Implement it in storage/postgres/ and storage/memory/
//  4. Create the service in internal/app/services/<name>/
//  5. Wire it in internal/app/application.go
//  6. Add HTTP handlers in internal/app/httpapi/
package app
