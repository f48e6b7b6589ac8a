package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/scattershot/internal/core"
	"github.com/vovakirdan/scattershot/internal/stick"
)

var (
	flagCamera    string
	flagDirection string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <yaw> <magnitude>",
	Short: "Find the stick reading for an intended movement",
	Long: `Resolve an intended yaw and magnitude to the closest achievable
stick reading.

The yaw is an angle in 65536 units per turn and may be written in decimal
or hex. The magnitude ranges from 0 to 32. The reading shares the HAU of
the requested yaw when one exists; otherwise buckets are walked in the
chosen direction until one matches.

Examples:
  scattershot resolve 0x8000 32
  scattershot resolve 16384 12.5 --camera 0x4000
  scattershot resolve -- -1000 32 --dir negative`,
	Args: cobra.ExactArgs(2),
	Run:  runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&flagCamera, "camera", "0", "Camera yaw")
	resolveCmd.Flags().StringVar(&flagDirection, "dir", "auto", "Bucket walk direction: auto, positive, negative")
}

// parseAngle parses a decimal or 0x-prefixed angle, wrapping it to 16 bits.
func parseAngle(s string) (core.Angle, error) {
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid angle %q: %w", s, err)
	}
	return core.Angle(int16(uint16(v))), nil
}

func runResolve(_ *cobra.Command, args []string) {
	yaw, err := parseAngle(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	mag, err := strconv.ParseFloat(args[1], 32)
	if err != nil || mag < 0 {
		fmt.Fprintf(os.Stderr, "Error: invalid magnitude %q\n", args[1])
		os.Exit(1)
	}
	camera, err := parseAngle(flagCamera)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	dir, ok := stick.ParseDirection(flagDirection)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown direction %q\n", flagDirection)
		os.Exit(1)
	}

	in, found := stick.DefaultResolver().Closest(yaw, float32(mag), camera, dir)
	if !found {
		fmt.Fprintln(os.Stderr, "No stick reading matches.")
		os.Exit(1)
	}

	fmt.Printf("Input:     %s\n", in)
	gotMag, baseYaw, moving := stick.Intended(in.StickX, in.StickY)
	if !moving {
		fmt.Println("Intended:  neutral")
		return
	}
	gotYaw := baseYaw + camera
	fmt.Printf("Intended:  yaw %#04x (HAU %d), magnitude %g\n", uint16(gotYaw), gotYaw.HAU(), gotMag)
	fmt.Printf("Requested: yaw %#04x (HAU %d), magnitude %g\n", uint16(yaw), yaw.HAU(), mag)
}
