package ddl

import (
	"strings"

	"github.com/ValentinKolb/dKS/cmd/util"
	"github.com/ValentinKolb/dKS/rpc/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rpcDDL client.IDDLClient

	// DDLCommands represents the ddl command group
	DDLCommands = &cobra.Command{
		Use:               "ddl",
		Short:             "Manage spaces and models on a dKS server",
		PersistentPreRunE: setupDDLClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common RPC flags to the ddl command
	util.SetupRPCClientFlags(DDLCommands)

	// Set the default space for all ddl operations
	DDLCommands.PersistentFlags().String("space", "", util.WrapString("Space to run the operation in (empty for the default space)"))

	// Add subcommands
	DDLCommands.AddCommand(createSpaceCmd)
	DDLCommands.AddCommand(dropSpaceCmd)
	DDLCommands.AddCommand(createModelCmd)
	DDLCommands.AddCommand(dropModelCmd)
	DDLCommands.AddCommand(useCmd)
	DDLCommands.AddCommand(inspectCmd)
	DDLCommands.AddCommand(runCmd)
	DDLCommands.AddCommand(pingCmd)
	DDLCommands.AddCommand(flushCmd)
	DDLCommands.AddCommand(snapshotCmd)
	DDLCommands.AddCommand(perfTestCmd)
}

// setupDDLClient initializes the RPC client
func setupDDLClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration components
	config := util.GetClientConfig()

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	// Create the client
	rpcDDL, err = client.NewRPCDDLClient(
		*config,
		t,
		s,
	)

	return err
}

// getSpace returns the space selected via the --space flag
func getSpace() string {
	return viper.GetString("space")
}

// parseEntity splits a possibly qualified model name (e.g. "apps.sessions")
// into its space and name. Unqualified names resolve against the --space flag.
func parseEntity(arg string) (space, name string) {
	if i := strings.IndexByte(arg, '.'); i >= 0 {
		return arg[:i], arg[i+1:]
	}
	return getSpace(), arg
}
