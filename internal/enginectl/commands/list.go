package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

func newPromptsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prompts",
		Short: "List every registered prompt definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine()
			if err != nil {
				return err
			}
			defer e.Stop()

			table := uitable.New()
			table.AddRow(color.New(color.Bold).Sprint("ID"), "NAME", "CATEGORY", "CHAIN", "ARGS")
			for _, d := range e.Prompts.All() {
				table.AddRow(d.ID, d.Name, d.Category, d.IsChain(), len(d.Arguments))
			}
			fmt.Println(table)
			return nil
		},
	}
}

func newGatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "gates",
		Short: "List every registered gate definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine()
			if err != nil {
				return err
			}
			defer e.Stop()

			table := uitable.New()
			table.AddRow(color.New(color.Bold).Sprint("ID"), "NAME", "TYPE", "GATE TYPE", "SEVERITY", "ENFORCEMENT")
			for _, d := range e.Gates.All() {
				table.AddRow(d.ID, d.Name, d.Type, d.GateType, d.Severity, d.EnforcementMode)
			}
			fmt.Println(table)
			return nil
		},
	}
}

func newFrameworksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "frameworks",
		Short: "List every registered framework (methodology) definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine()
			if err != nil {
				return err
			}
			defer e.Stop()

			def, hasDefault := e.Frameworks.Default()
			table := uitable.New()
			table.AddRow(color.New(color.Bold).Sprint("ID"), "NAME", "DEFAULT")
			for _, d := range e.Frameworks.All() {
				isDefault := hasDefault && d.ID == def.ID
				table.AddRow(d.ID, d.Name, isDefault)
			}
			fmt.Println(table)
			return nil
		},
	}
}

func newStylesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "styles",
		Short: "List every registered style definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine()
			if err != nil {
				return err
			}
			defer e.Stop()

			table := uitable.New()
			table.AddRow(color.New(color.Bold).Sprint("ID"), "NAME", "ENHANCEMENT", "PRIORITY", "ENABLED")
			for _, d := range e.Styles.All() {
				table.AddRow(d.ID, d.Name, d.EnhancementMode, d.Priority, d.Enabled)
			}
			fmt.Println(table)
			return nil
		},
	}
}
