package main

import (
	"fmt"
	"os"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "serve":
		err = runServe(args)
	case "create":
		err = runCreate(args)
	case "generate":
		err = runGenerate(args)
	case "share":
		err = runShare(args)
	case "list":
		err = runList(args)
	case "surprise":
		err = runSurprise(args)
	case "version":
		fmt.Printf("dalleboard %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`dalleboard - generate images from prompts and share them with the community

Usage:
  dalleboard <command> [flags]

Commands:
  serve                      Run the web server (reads .env)
  create -name N -prompt P   Generate an image and share it in one go
  generate -prompt P         Generate an image and save it to a file
  share -name N -prompt P -photo FILE|URL
                             Share an existing image
  list                       List shared posts
  surprise                   Print a random prompt
  version                    Print the dalleboard version
  help                       Show this help message

Client commands talk to -server (default $DALLEBOARD_URL or http://localhost:8080).

Examples:
  dalleboard serve
  dalleboard create -name Ann -surprise
  dalleboard generate -prompt "an astronaut lounging in a tropical resort" -out astro.jpg`)
}
