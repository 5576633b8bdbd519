package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"platefield/calculator"
	"platefield/model"
	"platefield/render"
	"platefield/scenario"
	"platefield/server"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

var (
	configPath   string
	scenarioName string
	params       model.PlateParams
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "platefield",
		Short:         "Electric field of finite charged plates by point-charge summation",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "conf/config.ini", "ini config file")
	root.AddCommand(newServeCmd(), newEvalCmd(), newRenderCmd())
	return root
}

// 读取配置；默认路径的文件不存在时使用内置默认值
func loadConfig(cmd *cobra.Command) (calculator.Config, *calculator.Env, error) {
	var (
		cfg calculator.Config
		err error
	)
	if _, statErr := os.Stat(configPath); statErr != nil && !cmd.Flags().Changed("config") {
		log.WithField("path", configPath).Warn("config file not found, using defaults")
		cfg, err = calculator.ParseConfig([]byte{})
	} else {
		cfg, err = calculator.LoadConfig(configPath)
	}
	if err != nil {
		return cfg, nil, err
	}
	env, err := cfg.Env()
	if err != nil {
		return cfg, nil, err
	}
	log.WithFields(log.Fields{
		"epsilon0": cfg.Epsilon0,
		"cellsX":   cfg.CellsX,
		"cellsY":   cfg.CellsY,
		"workers":  cfg.Workers,
	}).Info("config loaded")
	return cfg, env, nil
}

// 场景参数：命令行未指定的项取配置中的默认值
func plateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&scenarioName, "scenario", scenario.Single, fmt.Sprintf("one of %v", scenario.Names()))
	f.Float64Var(&params.Density, "density", 1, "surface charge density σ (C/m²)")
	f.Float64Var(&params.Distance, "distance", 1, "distance between parallel plates (m)")
	f.Float64Var(&params.Gap, "gap", 0.5, "gap between side-by-side plates (m)")
	f.Float64Var(&params.LengthX, "lx", 3, "plate length along x (m)")
	f.Float64Var(&params.LengthY, "ly", 3, "plate length along y (m)")
	f.IntVar(&params.CellsX, "cells-x", 0, "grid cells along x (0 = config)")
	f.IntVar(&params.CellsY, "cells-y", 0, "grid cells along y (0 = config)")
}

func resolveParams(cfg calculator.Config) model.PlateParams {
	p := params
	if p.CellsX == 0 {
		p.CellsX = cfg.CellsX
	}
	if p.CellsY == 0 {
		p.CellsY = cfg.CellsY
	}
	return p
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve field evaluations over websocket and HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, env, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			upgrader.CheckOrigin = func(r *http.Request) bool {
				return true
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			s := newServer(cfg, env)
			return s.Serve(ctx)
		},
	}
	return cmd
}

func newServer(cfg calculator.Config, env *calculator.Env) *server.Server {
	return server.NewServer(cfg.Addr, upgrader, env, cfg.Executor(), scenario.DefaultParams(cfg))
}

func newEvalCmd() *cobra.Command {
	var point model.Vec3
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Print the field and potential of a scenario at one point",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, env, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			f, err := scenario.Build(scenarioName, env, resolveParams(cfg))
			if err != nil {
				return err
			}
			e := f.Field(point)
			fmt.Fprintf(cmd.OutOrStdout(), "E = (%g, %g, %g) V/m\n|E| = %g V/m\nV = %g V\n", e.X, e.Y, e.Z, e.Norm(), f.Potential(point))
			if !e.IsFinite() {
				fmt.Fprintln(cmd.OutOrStdout(), "query point coincides with a cell centre")
			}
			return nil
		},
	}
	plateFlags(cmd)
	cmd.Flags().Float64Var(&point.X, "x", 0, "query x (m)")
	cmd.Flags().Float64Var(&point.Y, "y", 0, "query y (m)")
	cmd.Flags().Float64Var(&point.Z, "z", 1, "query z (m)")
	return cmd
}

func newRenderCmd() *cobra.Command {
	var (
		outDir  string
		zMax    float64
		samples int
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write the on-axis profile and an xz cross section of a scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, env, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			p := resolveParams(cfg)
			f, err := scenario.Build(scenarioName, env, p)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			return renderScenario(cfg.Executor(), env, f, p, outDir, zMax, samples)
		},
	}
	plateFlags(cmd)
	cmd.Flags().StringVar(&outDir, "out", "out", "output directory")
	cmd.Flags().Float64Var(&zMax, "zmax", 5, "profile and section extent (m)")
	cmd.Flags().IntVar(&samples, "samples", 101, "samples per axis")
	return cmd
}

func renderScenario(exec *calculator.Executor, env *calculator.Env, f calculator.FieldEvaluator, p model.PlateParams, outDir string, zMax float64, samples int) error {
	// 轴线剖面从平板表面以外开始，避开奇点
	profile, err := exec.AxisProfile(f, model.Vec3{Z: zMax / float64(samples)}, model.Vec3{Z: zMax}, samples)
	if err != nil {
		return err
	}
	numeric := render.ProfileSeries("discretized", profile, render.Z, render.Z)
	q := p.Density * p.LengthX * p.LengthY
	series := []render.Series{numeric}
	switch scenarioName {
	case scenario.Single:
		series = append(series,
			render.AnalyticSeries("point charge", numeric.X, func(z float64) float64 {
				return calculator.PointChargeField(env, q, model.Vec3{Z: z}).Z
			}),
			render.AnalyticSeries("infinite plate", numeric.X, func(z float64) float64 {
				return calculator.InfinitePlateField(env, p.Density, z)
			}),
		)
	case scenario.Parallel:
		series = append(series, render.AnalyticSeries("ideal capacitor", numeric.X, func(z float64) float64 {
			return calculator.IdealCapacitorField(env, p.Density, p.Distance, z)
		}))
	}
	if err := render.Lines(filepath.Join(outDir, "profile.png"), scenarioName+": Ez on axis", "z (m)", "Ez (V/m)", series...); err != nil {
		return err
	}

	csvFile, err := os.Create(filepath.Join(outDir, "profile.csv"))
	if err != nil {
		return err
	}
	defer csvFile.Close()
	if err := render.WriteCSV(csvFile, profile); err != nil {
		return err
	}

	section, err := exec.CrossSection(f, calculator.PlaneXZ, -zMax, zMax, -zMax, zMax, samples, samples, 0)
	if err != nil {
		return err
	}
	if err := render.Section(filepath.Join(outDir, "section.png"), scenarioName+": log10|E| in xz plane", section); err != nil {
		return err
	}
	log.WithField("dir", outDir).Info("render finished")
	return nil
}
