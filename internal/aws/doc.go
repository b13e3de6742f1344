// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package aws loads AWS SDK configuration and builds the S3 client used by
// the remote cache store.
package aws
