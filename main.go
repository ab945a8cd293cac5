// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
)

func main() {
	fmt.Println("🚀 mobdev-inventory-system - Offline-First Inventory Sync")
	fmt.Println("==========================================================")
	fmt.Println()
	fmt.Println("An offline-first, multi-tenant inventory system: devices keep a local")
	fmt.Println("SQLite database and exchange full-tenant snapshots and deltas with a")
	fmt.Println("Postgres-backed server, resolving conflicts newer-wins by updatedAt.")
	fmt.Println()

	fmt.Println("📦 Packages:")
	fmt.Println()
	fmt.Println("   mobsqlite/  - Device-side store: SQLite adapter, schema migrator,")
	fmt.Println("                 tenant-scoped repositories, stock ledger, alert deriver,")
	fmt.Println("                 and the sync client (upload, delta download, watermark)")
	fmt.Println("   mobsync/    - Server-side sync: Postgres service with newer-wins merge,")
	fmt.Println("                 category/supplier resolution, role checks, JWT auth,")
	fmt.Println("                 and net/http handlers for the sync endpoints")
	fmt.Println()

	fmt.Println("📚 Available Examples:")
	fmt.Println()
	fmt.Println("1. 🌐 Inventory Server (examples/inventory_server/)")
	fmt.Println("   Postgres-backed sync server with JWT auth and alert derivation")
	fmt.Println("   Run: cd examples/inventory_server && go run .")
	fmt.Println()
	fmt.Println("2. 📱 Device Simulator (examples/device_sim/)")
	fmt.Println("   Simulates one offline-first device: seed, sync, derive alerts")
	fmt.Println("   Run: cd examples/device_sim && go run . -server http://localhost:8080")
	fmt.Println()
}
