// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The matching engine (document location, dated note extraction,
// clinician attribution and patient folder resolution) is pure and
// deterministic; every external effect goes through a driven port.
package services
