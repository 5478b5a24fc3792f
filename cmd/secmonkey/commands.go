package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/noobzero/security-monkey/internal/auditor"
	"github.com/noobzero/security-monkey/internal/cache"
	"github.com/noobzero/security-monkey/internal/collector"
	"github.com/noobzero/security-monkey/internal/findings"
	"github.com/noobzero/security-monkey/internal/registry"
	"github.com/noobzero/security-monkey/internal/shared"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "secmonkey",
		Short: "Audit resource policies for risky cross-account access",
	}
	root.AddCommand(newAuditCmd())
	return root
}

func newAuditCmd() *cobra.Command {
	var configFile string

	v := viper.New()
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit collected item snapshots against the known-accounts registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				v.SetConfigFile(configFile)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("reading config file: %w", err)
				}
			}
			return runAudit(v)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "optional config file with items/accounts/policyKeys settings")
	cmd.Flags().String("items", "", "path to a JSON file of collected item snapshots")
	cmd.Flags().String("accounts", "", "path to the known-accounts registry JSON file")
	cmd.Flags().String("csv", "", "optional path to write a CSV findings report")
	v.BindPFlag("items", cmd.Flags().Lookup("items"))
	v.BindPFlag("accounts", cmd.Flags().Lookup("accounts"))
	v.BindPFlag("csv", cmd.Flags().Lookup("csv"))

	return cmd
}

func runAudit(v *viper.Viper) error {
	itemsPath := v.GetString("items")
	accountsPath := v.GetString("accounts")
	if itemsPath == "" || accountsPath == "" {
		return fmt.Errorf("both --items and --accounts are required")
	}

	accountsRaw, err := os.ReadFile(accountsPath)
	if err != nil {
		return err
	}
	accounts, err := registry.LoadAccounts(accountsRaw)
	if err != nil {
		return err
	}
	accountRegistry, err := registry.NewAccountRegistry(accounts)
	if err != nil {
		return err
	}

	itemsFile, err := os.Open(itemsPath)
	if err != nil {
		return err
	}
	defer itemsFile.Close()
	items, err := collector.ReadItems(itemsFile)
	if err != nil {
		return err
	}

	registryInspector, err := auditor.NewRegistryInspector(accountRegistry)
	if err != nil {
		return err
	}
	inspector, err := auditor.NewCachedInspector(registryInspector, cache.NewClassificationCache())
	if err != nil {
		return err
	}

	policyKeyOverrides := v.GetStringMapStringSlice("policykeys")

	recorder := findings.NewCollector()
	failedItems := 0
	for _, item := range items {
		aud, err := auditor.NewResourcePolicyAuditor(auditor.ResourcePolicyAuditorConfig{
			PolicyKeys: policyKeysFor(item.ResourceType, policyKeyOverrides),
			Inspector:  inspector,
			Recorder:   recorder,
		})
		if err != nil {
			return err
		}
		// a failing item is reported and skipped; the run continues
		if err := aud.CheckAll(item); err != nil {
			log.Printf("item [%v] failed : [%v]\n", item.Identifier, err.Error())
			failedItems++
		}
	}

	results := recorder.Findings()
	printFindings(results)
	fmt.Printf("\n%d findings across %d items (%d items failed)\n", len(results), len(items), failedItems)

	if csvPath := v.GetString("csv"); csvPath != "" {
		if err := writeCsvReport(csvPath, results); err != nil {
			return err
		}
		fmt.Printf("findings report written to %s\n", csvPath)
	}
	return nil
}

func policyKeysFor(resourceType string, overrides map[string][]string) []string {
	// viper lower-cases configuration map keys
	if keys, ok := overrides[strings.ToLower(resourceType)]; ok && len(keys) > 0 {
		return keys
	}
	switch resourceType {
	case shared.AwsIamRole:
		return []string{collector.TrustPolicyKey}
	}
	return []string{"Policy"}
}

func printFindings(results []findings.Finding) {
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	for _, finding := range results {
		category := finding.Category
		switch category {
		case findings.CategoryInternet, findings.CategoryRootCrossAccount:
			category = red(category)
		case findings.CategoryThirdParty, findings.CategoryUnknown:
			category = yellow(category)
		case findings.CategoryFriendly:
			category = green(category)
		}
		fmt.Printf("%-30s %s granted to %s (%s): %v\n",
			category, finding.ItemIdentifier, finding.EntityValue, finding.EntityCategory, finding.Actions)
	}
}

func writeCsvReport(path string, results []findings.Finding) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(findings.CsvHeaders()); err != nil {
		return err
	}
	for _, finding := range results {
		if err := writer.Write(finding.CsvRecord()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
