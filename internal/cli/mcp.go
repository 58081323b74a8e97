package cli

import (
	"github.com/spf13/cobra"

	"github.com/DevN0mad/OpenProjectBoard/internal/mcpserver"
)

var mcpHTTPAddr string

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "Serve MCP over Streamable HTTP on this address (e.g. :8080) instead of stdin/stdout")
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve OpenProject tools and the board over MCP",
	Long: `Start an MCP server. By default it talks over stdin/stdout and logs go to
stderr so they do not interfere with the protocol stream. With --http the
server listens on the given address using the Streamable HTTP transport.`,
	Example: `  op mcp
  op mcp --http 0.0.0.0:8080`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		boards, err := rt.boards()
		if err != nil {
			return err
		}

		srv, err := mcpserver.New(rt.op, boards, rt.logger)
		if err != nil {
			return err
		}
		if mcpHTTPAddr != "" {
			return srv.RunHTTP(cmd.Context(), mcpHTTPAddr)
		}
		return srv.RunStdio(cmd.Context())
	},
}
