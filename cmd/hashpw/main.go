// Command hashpw prints the bcrypt hash of the given credential, for use as
// AUTH_ADMIN_PASSWORD_HASH.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spec-kit/intake-service/internal/auth"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <password>", os.Args[0])
	}
	hashed, err := auth.HashCredential(os.Args[1], 12)
	if err != nil {
		log.Fatalf("hash failed: %v", err)
	}
	fmt.Println(hashed)
}
