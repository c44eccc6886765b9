// cmd/tools/registry-updater/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"quote-workflow/pkg/registry"
)

const defaultRegistryPath = "configs/task-registry.json"

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	// Add command flags
	addPath := addCmd.String("path", defaultRegistryPath, "Path to registry file")
	idAdd := addCmd.String("id", "", "Task ID (e.g., calculate-premium)")
	displayName := addCmd.String("displayName", "", "Display Name (e.g., Calculate Premium)")
	description := addCmd.String("description", "", "Description")
	category := addCmd.String("category", "", "Category (quote, application, payment, renewal)")
	taskType := addCmd.String("taskType", "", "Zeebe Task Type (e.g., quote.premium.calculate)")
	version := addCmd.String("version", "1.0.0", "Version")
	implStatus := addCmd.String("status", registry.StatusPlanned, "Implementation Status (planned, in-progress, completed, verified)")
	timeout := addCmd.String("timeout", "30s", "Job timeout")
	tags := addCmd.String("tags", "", "Comma separated tags")

	// Update command flags
	updatePath := updateCmd.String("path", defaultRegistryPath, "Path to registry file")
	idUpdate := updateCmd.String("id", "", "Task ID to update")
	field := updateCmd.String("field", "", "Field to update (status, version, timeout, retries, ...)")
	value := updateCmd.String("value", "", "New value for the field")

	validatePath := validateCmd.String("path", defaultRegistryPath, "Path to registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		addCmd.Parse(os.Args[2:])
		if *idAdd == "" || *displayName == "" || *category == "" || *taskType == "" {
			fmt.Println("Error: id, displayName, category, and taskType are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		reg, err := registry.LoadOrNew(*addPath)
		exitOn(err)
		exitOn(reg.Add(registry.Task{
			ID:                   *idAdd,
			DisplayName:          *displayName,
			Description:          *description,
			Category:             *category,
			Version:              *version,
			TaskType:             *taskType,
			ImplementationStatus: *implStatus,
			Timeout:              *timeout,
			Retries:              3,
			Tags:                 splitTags(*tags),
		}))
		exitOn(reg.Save(*addPath))
		fmt.Printf("Task %s added to %s\n", *idAdd, *addPath)

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *idUpdate == "" || *field == "" || *value == "" {
			fmt.Println("Error: id, field, and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		reg, err := registry.Load(*updatePath)
		exitOn(err)
		exitOn(reg.Update(*idUpdate, *field, *value))
		exitOn(reg.Save(*updatePath))
		fmt.Printf("Task %s updated: %s=%s\n", *idUpdate, *field, *value)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		reg, err := registry.Load(*validatePath)
		exitOn(err)
		exitOn(reg.Validate())
		fmt.Printf("Registry %s is valid (%d tasks)\n", *validatePath, len(reg.Tasks))

	default:
		help()
		os.Exit(1)
	}
}

func splitTags(s string) []string {
	if s == "" {
		return []string{}
	}
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func help() {
	fmt.Println("Usage: registry-updater <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  add       Add a new task to the registry")
	fmt.Println("  update    Update a field of an existing task")
	fmt.Println("  validate  Validate the registry file")
}
