/*
main.go - Application entry point

PURPOSE:
  The payroll command: runs the HTTP server and offers offline tools to
  compute a payslip or price an absence without a database.

COMMANDS:
  serve     Start the HTTP API (store, policy, scheduler, graceful shutdown)
  compute   Compute one payslip from flags and print it
  price     Price a permission or absence
  policy    Print the policy in force as JSON

CONFIGURATION:
  Environment first (see config/config.go), optionally seeded from .env
  files; flags override the environment.

EXAMPLES:
  # Run with file database
  payroll serve --db=./data/payroll.db

  # Run with in-memory database and demo data
  payroll serve --db=":memory:" --seed=standard-payroll

  # Payslip for a 5000 BOB salary, hired 2021-01-15
  payroll compute --base 5000 --hire-date 2021-01-15 --today 2024-03-15 \
      --deduction PERMISSION:41.67:"Permiso medio día"

SEE ALSO:
  - serve.go: Server startup
  - api/server.go: Router configuration
  - config/config.go: Environment variables
*/
package main

import (
	"os"

	_ "time/tzdata"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
