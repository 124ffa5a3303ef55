package kv

import (
	"fmt"

	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	hsetCmd = &cobra.Command{
		Use:   "hset [table] [key] [value]",
		Short: "Sets the value of a key in a table and prints the previous value",
		Args:  cobra.ExactArgs(3),
		RunE:  runCommand(common.MsgTHset),
	}
	hgetCmd = &cobra.Command{
		Use:   "hget [table] [key]",
		Short: "Reads the value of a key in a table",
		Args:  cobra.ExactArgs(2),
		RunE:  runCommand(common.MsgTHget),
	}
	hgetallCmd = &cobra.Command{
		Use:   "hgetall [table]",
		Short: "Reads all key-value pairs of a table",
		Args:  cobra.ExactArgs(1),
		RunE:  runCommand(common.MsgTHgetall),
	}
	hexistCmd = &cobra.Command{
		Use:   "hexist [table] [key]",
		Short: "Checks if a key exists in a table",
		Args:  cobra.ExactArgs(2),
		RunE:  runCommand(common.MsgTHexist),
	}
	hdelCmd = &cobra.Command{
		Use:   "hdel [table] [key]",
		Short: "Deletes a key from a table and prints the previous value",
		Args:  cobra.ExactArgs(2),
		RunE:  runCommand(common.MsgTHdel),
	}
)

func init() {
	hsetCmd.Flags().StringP("type", "t", store.KindString.String(), "Type of the value (string, int, float, bool, binary)")
}

// runCommand returns the RunE function of a command
func runCommand(msgType common.MessageType) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		kind := store.KindString
		if msgType == common.MsgTHset {
			var err error
			if kind, err = store.ParseValueKind(viper.GetString("type")); err != nil {
				return err
			}
		}

		req, err := buildRequest(msgType, args, kind)
		if err != nil {
			return err
		}

		resp, err := rpcStore.Execute(req)
		if err != nil {
			return err
		}
		return writeResponse(cmd.OutOrStdout(), msgType, resp, viper.GetString("output"))
	}
}

// buildRequest creates the request of a command from its positional arguments
func buildRequest(msgType common.MessageType, args []string, kind store.ValueKind) (*common.CommandRequest, error) {
	want := map[common.MessageType]int{
		common.MsgTHset:    3,
		common.MsgTHget:    2,
		common.MsgTHgetall: 1,
		common.MsgTHexist:  2,
		common.MsgTHdel:    2,
	}[msgType]
	if want == 0 {
		return nil, fmt.Errorf("unknown command %s", msgType)
	}
	if len(args) != want {
		return nil, fmt.Errorf("%s expects %d arguments, got %d", msgType, want, len(args))
	}

	switch msgType {
	case common.MsgTHset:
		value, err := store.ParseValue(kind, args[2])
		if err != nil {
			return nil, err
		}
		return common.NewHsetRequest(args[0], args[1], value), nil
	case common.MsgTHget:
		return common.NewHgetRequest(args[0], args[1]), nil
	case common.MsgTHgetall:
		return common.NewHgetallRequest(args[0]), nil
	case common.MsgTHexist:
		return common.NewHexistRequest(args[0], args[1]), nil
	default:
		return common.NewHdelRequest(args[0], args[1]), nil
	}
}
