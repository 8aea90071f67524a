package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/Angad-2002/Darwix-AI/internal/applog"
	"github.com/Angad-2002/Darwix-AI/internal/bootstrap"
)

func main() {
	frontend := flag.String("frontend", "", "Directory with built frontend assets (default ./frontend)")
	flag.Parse()

	var assets fs.FS
	if *frontend != "" {
		info, err := os.Stat(*frontend)
		if err != nil || !info.IsDir() {
			fmt.Fprintf(os.Stderr, "error: frontend directory %q not found\n", *frontend)
			os.Exit(2)
		}
		assets = os.DirFS(*frontend)
	}

	log := applog.Default()
	app, err := bootstrap.NewWithAssets(assets)
	if err != nil {
		applog.Errorf(log, "bootstrap app: %v", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		applog.Errorf(log, "run app: %v", err)
		os.Exit(1)
	}
}
