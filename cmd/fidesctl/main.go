// Copyright (C) 2025 SAGE-X Project
//
// This file is part of sage-a2a-go.
//
// sage-a2a-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// sage-a2a-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with sage-a2a-go.  If not, see <https://www.gnu.org/licenses/>.

// Command fidesctl demonstrates the core fides client flow: mint an
// identity, store it in an on-disk keystore, and sign/verify an HTTP
// request with it. Flag parsing and terminal rendering beyond this are
// explicitly out of scope for the core (spec.md §1); this is a thin
// demonstration wrapper, not a full CLI.
package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/sage-x-project/fides/internal/config"
	"github.com/sage-x-project/fides/pkg/fcrypto"
	"github.com/sage-x-project/fides/pkg/httpsig"
	"github.com/sage-x-project/fides/pkg/identity"
	"github.com/sage-x-project/fides/pkg/keystore"
)

func main() {
	fmt.Println("=== fidesctl: identity + signing walkthrough ===")

	var cfg config.ClientConfig
	if err := config.LoadClient(&cfg); err != nil {
		log.Fatalf("load client config: %v", err)
	}

	fmt.Println("Step 1: Generating an Ed25519 keypair...")
	kp, err := fcrypto.GenerateKeyPair()
	if err != nil {
		log.Fatalf("generate keypair: %v", err)
	}

	did, err := identity.Derive(kp.PublicKey)
	if err != nil {
		log.Fatalf("derive identifier: %v", err)
	}
	fmt.Printf("  Identifier: %s\n\n", did)

	fmt.Printf("Step 2: Saving keypair to on-disk keystore at %s...\n", cfg.KeyDir)
	disk, err := keystore.NewDisk(cfg.KeyDir, "")
	if err != nil {
		log.Fatalf("open keystore: %v", err)
	}
	if err := disk.Save(did, kp); err != nil {
		log.Fatalf("save keypair: %v", err)
	}
	fmt.Println("  Saved.")

	fmt.Println("\nStep 3: Signing a demo HTTP request...")
	req, err := http.NewRequest(http.MethodPost, "https://trust.fides.example/v1/trust", nil)
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := httpsig.Sign(req, kp.Seed, &httpsig.SignOptions{KeyID: did}); err != nil {
		log.Fatalf("sign request: %v", err)
	}
	fmt.Printf("  Signature-Input: %s\n", req.Header.Get("Signature-Input"))
	fmt.Printf("  Signature: %s\n\n", req.Header.Get("Signature"))

	fmt.Println("Step 4: Verifying the signed request...")
	result := httpsig.Verify(req, kp.PublicKey, nil)
	if !result.Valid {
		log.Fatalf("verification failed: %s", result.Error)
	}
	fmt.Printf("  Valid signature from %s\n", result.KeyID)
}
