package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/linectl/linectl-go/pkg/discovery"
)

func (a *app) discoverCmd() *cobra.Command {
	var (
		timeout time.Duration
		iface   string
	)
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find devices advertised via mDNS",
		Long: `Browse for ` + discovery.ServiceType + ` services on the local network.

Exit codes:
  0 - at least one device found
  1 - no devices found or browse failed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := discovery.Browse(cmd.Context(), iface, timeout)
			if err != nil {
				return err
			}
			if len(services) == 0 {
				return fmt.Errorf("no devices found within %s", timeout)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "INSTANCE\tID\tENDPOINT\tVERSION\tSERIAL")
			for _, svc := range services {
				fmt.Fprintf(tw, "%s\t0x%x\t%s\t%s\t%s\n",
					svc.Instance, svc.DeviceID, svc.Endpoint(), svc.Version, svc.Serial)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().DurationVar(&timeout, "browse-timeout", discovery.DefaultBrowseTimeout, "How long to listen for announcements")
	cmd.Flags().StringVar(&iface, "iface", "", "Network interface (default: all)")
	return cmd
}
