package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"bridgebot/backend/pkg/crypto"
)

// hash_password prints the bcrypt hash to put in OPERATOR_PASSWORD_HASH.
// The password is read from the first argument or stdin.
func main() {
	var password string
	if len(os.Args) > 1 {
		password = os.Args[1]
	} else {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintf(os.Stderr, "Failed to read password: %v\n", err)
			os.Exit(1)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	if !crypto.ValidatePasswordStrength(password) {
		fmt.Fprintln(os.Stderr, "Password must be 8 to 100 characters")
		os.Exit(1)
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash password: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
