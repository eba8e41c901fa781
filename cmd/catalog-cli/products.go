package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"storefront/internal/catalog"
	"storefront/pkg/models"
)

func newProductsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"p"},
		Short:   "Work with products",
	}
	cmd.AddCommand(
		newProductsListCmd(),
		newProductsGetCmd(),
		newProductsCreateCmd(),
		newProductsUpdateCmd(),
		newProductsDeleteCmd(),
		newProductsUploadCmd(),
	)
	return cmd
}

func newProductsListCmd() *cobra.Command {
	var category, itemType string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			var items []models.Item
			switch {
			case itemType != "":
				var err error
				items, err = a.mirror.QueryProducts(cmd.Context(), catalog.Filter{Category: category, ItemType: itemType})
				if err != nil {
					return err
				}
			case category != "":
				items = a.mirror.ProductsByCategory(category)
			default:
				items = a.mirror.Products()
			}

			out := cmd.OutOrStdout()
			for _, it := range items {
				fmt.Fprintf(out, "%-24s %-10s %-12s %s\n", it.ID, it.Category, it.ItemType, it.Name)
			}
			fmt.Fprintf(out, "%d product(s)\n", len(items))
			return nil
		}),
	}
	cmd.Flags().StringVar(&category, "category", "", "category id")
	cmd.Flags().StringVar(&itemType, "type", "", "item type")
	return cmd
}

func newProductsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			it, ok := a.mirror.ProductByID(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", catalog.ErrNotFound, args[0])
			}
			return printJSON(cmd.OutOrStdout(), it)
		}),
	}
}

// patchFlags binds one flag per ItemPatch field. Only flags the user set end
// up in the patch.
type patchFlags struct {
	name, category, itemType, description, imageURL string
	sizes, colors, tags                              []string
}

func (p *patchFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&p.name, "name", "", "product name")
	f.StringVar(&p.category, "category", "", "category id")
	f.StringVar(&p.itemType, "type", "", "item type")
	f.StringVar(&p.description, "description", "", "description")
	f.StringVar(&p.imageURL, "image-url", "", "image URL (empty string clears it)")
	f.StringSliceVar(&p.sizes, "sizes", nil, "comma separated sizes")
	f.StringSliceVar(&p.colors, "colors", nil, "comma separated colors")
	f.StringSliceVar(&p.tags, "tags", nil, "comma separated tags")
}

func (p *patchFlags) patch(cmd *cobra.Command) models.ItemPatch {
	var out models.ItemPatch
	f := cmd.Flags()
	if f.Changed("name") {
		out.Name = &p.name
	}
	if f.Changed("category") {
		out.Category = &p.category
	}
	if f.Changed("type") {
		out.ItemType = &p.itemType
	}
	if f.Changed("description") {
		out.Description = &p.description
	}
	if f.Changed("image-url") {
		out.ImageURL = &p.imageURL
	}
	if f.Changed("sizes") {
		out.Sizes = &p.sizes
	}
	if f.Changed("colors") {
		out.Colors = &p.colors
	}
	if f.Changed("tags") {
		out.Tags = &p.tags
	}
	return out
}

func newProductsCreateCmd() *cobra.Command {
	var pf patchFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			it, err := a.mirror.CreateProduct(cmd.Context(), pf.patch(cmd).Apply(models.Item{}))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), it)
		}),
	}
	pf.bind(cmd)
	return cmd
}

func newProductsUpdateCmd() *cobra.Command {
	var pf patchFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Merge the given fields into a product",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			out, err := a.mirror.UpdateProduct(cmd.Context(), args[0], pf.patch(cmd))
			if err != nil {
				return err
			}
			printWarnings(cmd.ErrOrStderr(), out)
			it, _ := a.mirror.ProductByID(args[0])
			return printJSON(cmd.OutOrStdout(), it)
		}),
	}
	pf.bind(cmd)
	return cmd
}

func newProductsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product and its hosted image",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			out, err := a.mirror.DeleteProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printWarnings(cmd.ErrOrStderr(), out)
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		}),
	}
}

func newProductsUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <id> <file>",
		Short: "Upload a new image for a product",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			out, err := a.mirror.ReplaceImage(cmd.Context(), args[0], filepath.Base(args[1]), f)
			if err != nil {
				return err
			}
			printWarnings(cmd.ErrOrStderr(), out)
			it, _ := a.mirror.ProductByID(args[0])
			fmt.Fprintln(cmd.OutOrStdout(), it.ImageURL)
			return nil
		}),
	}
}
