package main

import (
	"net/http"

	"github.com/aligator/vexfat"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func logRequest(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Infof("%s %s %s", r.Method, r.URL, r.Header.Get("Range"))
		handler.ServeHTTP(w, r)
	})
}

func serveCmd(volume *volumeFlags) *cobra.Command {
	var (
		port string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the volume image over http",
		Long: `Serve the volume image over http.

The image is generated while it is read, range requests read only the
requested sectors.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			vol, cfg, err := volume.load(afero.NewOsFs())
			if err != nil {
				return err
			}

			image := afero.NewHttpFs(vexfat.NewFs(vol, cfg.ImageName, modTime(cfg)))
			http.Handle("/", http.FileServer(image.Dir("/")))
			log.Infof("Serving /%s on %s", cfg.ImageName, port)
			return http.ListenAndServe(port, logRequest(http.DefaultServeMux))
		},
	}

	cmd.Flags().StringVar(&port, "port", ":8080", "Local port to serve on")

	return cmd
}
