package app

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"horse.fit/newsrank/internal/auth"
)

// runHashPassword generates the bcrypt hash expected in
// NR_ADMIN_PASSWORD_HASH. The password comes from --password or the
// first line of stdin.
func runHashPassword(args []string) int {
	fs := flag.NewFlagSet("hashpw", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	password := fs.String("password", "", "Password to hash (reads stdin when omitted)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	value := strings.TrimSpace(*password)
	if value == "" {
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			value = strings.TrimSpace(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read stdin: %v\n", err)
			return 1
		}
	}

	hash, err := auth.HashPassword(value)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fmt.Println(hash)
	return 0
}
