package cmd

import (
	"fmt"
	"runtime"

	"github.com/gophertribe/devtool/build"
	"github.com/spf13/cobra"
)

const (
	binaryPath    = "dist/sensorlog"
	mainPackage   = "./cmd/sensorlog"
	versionTarget = "github.com/mklimuk/sensorlog/config"
	builderImage  = "gophertribe/gobuild:1.25-bookworm"
)

type target struct {
	os, arch           string
	crossOS, crossArch string
	version            string
}

func (t target) native() bool {
	return t.os == runtime.GOOS && t.arch == runtime.GOARCH
}

// goBuild compiles on the host. karalabe/hid needs cgo, so cross targets must have a C toolchain.
func (t target) goBuild() error {
	goos, goarch := t.os, t.arch
	if t.crossOS != "" && t.crossArch != "" {
		goos, goarch = t.crossOS, t.crossArch
	}
	return build.GoBuild(binaryPath, mainPackage, build.GoBuildOpts{
		Version:       t.version,
		InjectVersion: true,
		ConfigPackage: versionTarget,
		EnableCgo:     true,
		OS:            goos,
		Arch:          goarch,
	})
}

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the sensorlog daemon",
		Long:  "Builds natively with go build, or inside the builder image when --os/--arch differ from the host.",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			t := target{}
			t.os, _ = flags.GetString("os")
			t.arch, _ = flags.GetString("arch")
			t.crossOS, _ = flags.GetString("cross-os")
			t.crossArch, _ = flags.GetString("cross-arch")
			t.version, _ = flags.GetString("version")

			if t.native() {
				return t.goBuild()
			}
			noCache, err := flags.GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("could not get no-cache flag: %w", err)
			}
			// the container runs this tool again, as a native build with cross flags
			args = []string{"build", "--version", t.version, "--cross-os", t.crossOS, "--cross-arch", t.crossArch}
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", t.os, t.arch), args, build.DockerBuildOpts{
				NoCache: noCache,
				Image:   builderImage,
			})
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use the docker build cache")
	cmd.Flags().String("version", "latest", "version injected into config.Version")
	cmd.Flags().String("os", runtime.GOOS, "os to build for")
	cmd.Flags().String("arch", runtime.GOARCH, "arch to build for")
	cmd.Flags().String("cross-os", "", "os to cross-compile for")
	cmd.Flags().String("cross-arch", "", "arch to cross-compile for")
	return cmd
}
