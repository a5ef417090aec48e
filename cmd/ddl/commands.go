package ddl

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/dKS/cmd/util"
	"github.com/ValentinKolb/dKS/lib/ql"
	"github.com/spf13/cobra"
)

var (
	forceDrop     bool
	modelVolatile bool
	snapshotName  string

	createSpaceCmd = &cobra.Command{
		Use:   "create-space [name]",
		Short: "Creates a new space",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcDDL.CreateSpace(args[0]); err != nil {
				return err
			}
			fmt.Println("space created successfully")
			return nil
		},
	}
	dropSpaceCmd = &cobra.Command{
		Use:   "drop-space [name]",
		Short: "Drops an empty space",
		Long:  "Drops a space. Without --force the space must be empty and not in use. With --force all contained models are removed as well.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcDDL.DropSpace(args[0], forceDrop); err != nil {
				return err
			}
			fmt.Println("space dropped successfully")
			return nil
		},
	}
	createModelCmd = &cobra.Command{
		Use:   "create-model [name] [key-type] [value-type]",
		Short: "Creates a new model",
		Long:  "Creates a new model. The key type must be string or binary, the value type may additionally be list<string> or list<binary> (e.g. dks ddl create-model sessions string list<string> --space apps).",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyExpr, err := ql.ParseTypeExpression(args[1])
			if err != nil {
				return fmt.Errorf("invalid key type %q: %w", args[1], err)
			}
			if len(keyExpr) != 1 {
				return fmt.Errorf("key type must be string or binary, got %q", args[1])
			}
			valueExpr, err := ql.ParseTypeExpression(args[2])
			if err != nil {
				return fmt.Errorf("invalid value type %q: %w", args[2], err)
			}
			model, err := ql.ModelFor(keyExpr[0], valueExpr)
			if err != nil {
				return err
			}
			space, name := parseEntity(args[0])
			if err := rpcDDL.CreateModel(space, name, model, modelVolatile); err != nil {
				return err
			}
			fmt.Println("model created successfully")
			return nil
		},
	}
	dropModelCmd = &cobra.Command{
		Use:   "drop-model [name]",
		Short: "Drops a model",
		Long:  "Drops a model. Without --force the model must not be in use. The name may be qualified with its space (e.g. apps.sessions), otherwise the --space flag applies.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			space, name := parseEntity(args[0])
			if err := rpcDDL.DropModel(space, name, forceDrop); err != nil {
				return err
			}
			fmt.Println("model dropped successfully")
			return nil
		},
	}
	useCmd = &cobra.Command{
		Use:   "use [target]",
		Short: "Resolves a space or model and prints the resulting cursor",
		Long:  "Resolves a space (e.g. apps) or a qualified model (e.g. apps.sessions) and prints the fully qualified cursor the server would switch to.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var space, entity string
			if i := strings.IndexByte(args[0], '.'); i >= 0 {
				space, entity = args[0][:i], args[0][i+1:]
			} else {
				space = args[0]
			}
			current, err := rpcDDL.Use(space, entity)
			if err != nil {
				return err
			}
			fmt.Printf("current=%s\n", current)
			return nil
		},
	}

	inspectCmd = &cobra.Command{
		Use:   "inspect",
		Short: "Inspect spaces and models",
	}
	inspectSpacesCmd = &cobra.Command{
		Use:   "spaces",
		Short: "Lists all spaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spaces, err := rpcDDL.InspectSpaces()
			if err != nil {
				return err
			}
			for _, space := range spaces {
				fmt.Println(space)
			}
			return nil
		},
	}
	inspectSpaceCmd = &cobra.Command{
		Use:   "space [name]",
		Short: "Lists all models of a space",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			space := getSpace()
			if len(args) == 1 {
				space = args[0]
			}
			models, err := rpcDDL.InspectSpace(space)
			if err != nil {
				return err
			}
			for _, model := range models {
				fmt.Println(model)
			}
			return nil
		},
	}
	inspectModelCmd = &cobra.Command{
		Use:   "model [name]",
		Short: "Describes a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			space, name := parseEntity(args[0])
			description, err := rpcDDL.InspectModel(space, name)
			if err != nil {
				return err
			}
			fmt.Println(description)
			return nil
		},
	}

	runCmd = &cobra.Command{
		Use:   "run [statement]",
		Short: "Runs a DDL statement",
		Long:  "Runs a single DDL statement (e.g. dks ddl run 'create model events(string, list<binary>)' --space apps). Inspect statements print one line per result entry.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := rpcDDL.Statement(getSpace(), []byte(args[0]))
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("ok")
				return nil
			}
			for _, entry := range entries {
				fmt.Println(entry)
			}
			return nil
		},
	}

	pingCmd = &cobra.Command{
		Use:   "ping",
		Short: "Checks that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcDDL.Ping(); err != nil {
				return err
			}
			fmt.Println("pong")
			return nil
		},
	}
	flushCmd = &cobra.Command{
		Use:   "flush",
		Short: "Flushes the hierarchy to disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcDDL.Flush(); err != nil {
				return err
			}
			fmt.Println("flushed successfully")
			return nil
		},
	}
	snapshotCmd = &cobra.Command{
		Use:   "snapshot",
		Short: "Writes a snapshot of the hierarchy",
		Long:  "Writes a snapshot of the hierarchy on the server. Without --name the snapshot is named after the current timestamp, named snapshots are never pruned.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := rpcDDL.Snapshot(snapshotName)
			if err != nil {
				return err
			}
			fmt.Printf("snapshot=%s\n", name)
			return nil
		},
	}
)

func init() {
	// Add subcommands to the inspect command group
	inspectCmd.AddCommand(inspectSpacesCmd)
	inspectCmd.AddCommand(inspectSpaceCmd)
	inspectCmd.AddCommand(inspectModelCmd)

	// Add flags
	dropSpaceCmd.Flags().BoolVar(&forceDrop, "force", false, util.WrapString("Drop the space even if it still contains models"))
	dropModelCmd.Flags().BoolVar(&forceDrop, "force", false, util.WrapString("Drop the model even if it is in use"))
	createModelCmd.Flags().BoolVar(&modelVolatile, "volatile", false, util.WrapString("Create the model as volatile, its data is then never flushed to disk"))
	snapshotCmd.Flags().StringVar(&snapshotName, "name", "", util.WrapString("Optional name for the snapshot"))
}
