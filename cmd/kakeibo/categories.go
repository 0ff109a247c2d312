package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fumisaki/kakeibo/internal/export"
	"github.com/fumisaki/kakeibo/internal/model"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage income and expense categories",
		Long:  `List, add, update, and delete the categories transactions are booked against.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(updateCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())
	cmd.AddCommand(seedCategoriesCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	var typeFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var categories []model.Category
			if typeFilter != "" {
				categories, err = store.GetCategoriesByType(ctx, model.CategoryType(typeFilter))
			} else {
				categories, err = store.GetCategories(ctx)
			}
			if err != nil {
				return renderError(err)
			}

			if len(categories) == 0 {
				fmt.Println("No categories found. Use 'kakeibo categories seed' to create the defaults.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "ID\tName\tType\tColor\tDefault")
			for _, cat := range categories {
				defaultMark := ""
				if cat.IsDefault {
					defaultMark = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					cat.ID, cat.Name, export.CategoryTypeLabel(cat.Type), cat.Color, defaultMark)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&typeFilter, "type", "", "filter by type (income, expense, both)")
	return cmd
}

func addCategoryCmd() *cobra.Command {
	var (
		color        string
		categoryType string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cat, err := store.CreateCategory(ctx, model.CreateCategoryInput{
				Name:  args[0],
				Color: color,
				Type:  model.CategoryType(categoryType),
			})
			if err != nil {
				return renderError(err)
			}

			fmt.Printf("Created category %q (%s)\n", cat.Name, cat.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&color, "color", "#95A5A6", "display color (#RRGGBB)")
	cmd.Flags().StringVar(&categoryType, "type", "expense", "category type (income, expense, both)")
	return cmd
}

func updateCategoryCmd() *cobra.Command {
	var (
		name         string
		color        string
		categoryType string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			input := model.UpdateCategoryInput{}
			if cmd.Flags().Changed("name") {
				input.Name = &name
			}
			if cmd.Flags().Changed("color") {
				input.Color = &color
			}
			if cmd.Flags().Changed("type") {
				t := model.CategoryType(categoryType)
				input.Type = &t
			}

			cat, err := store.UpdateCategory(ctx, args[0], input)
			if err != nil {
				return renderError(err)
			}

			fmt.Printf("Updated category %q\n", cat.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&color, "color", "", "new color (#RRGGBB)")
	cmd.Flags().StringVar(&categoryType, "type", "", "new type (income, expense, both)")
	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Long:  `Delete a category. Default categories and categories still referenced by transactions are protected.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteCategory(ctx, args[0]); err != nil {
				return renderError(err)
			}

			fmt.Println("Category deleted")
			return nil
		},
	}
}

func seedCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the default categories",
		Long:  `Insert the fixed default category set. A no-op when defaults already exist.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.CreateDefaultCategories(ctx); err != nil {
				return renderError(err)
			}

			fmt.Println("Default categories are in place")
			return nil
		},
	}
}
