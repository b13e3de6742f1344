// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// covcache is the command line front end for the analysis cache. It wires
// the CLI, delegates to internal packages, and serves as the entry point.
package main
