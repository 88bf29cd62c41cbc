// Command example_marathon is a tiny in-memory Marathon lookalike for running
// Certra end-to-end on a laptop: it serves app definitions, accepts PATCH
// updates, and keeps the resulting deployment "in flight" for a while so the
// deployment waiter has something to poll.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/certra/Certra/utils"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

var (
	mu          sync.Mutex
	apps        = map[string]*appState{}
	deployments = map[string]time.Time{}

	deploymentLinger = time.Duration(utils.MustEnvOrDefaultInt64("DEPLOYMENT_LINGER_SEC", 15)) * time.Second
)

type appState struct {
	ID      string                     `json:"id"`
	Labels  map[string]string          `json:"labels"`
	Env     map[string]string          `json:"env"`
	Secrets map[string]json.RawMessage `json:"secrets"`
}

func main() {
	seed()

	server := echo.New()
	server.HideBanner = true
	server.HidePort = true
	server.Use(middleware.Logger())

	server.GET("/v2/apps/*", getApp)
	server.PATCH("/v2/apps/*", patchApp)
	server.GET("/v2/deployments", listDeployments)

	log.Println("starting example marathon on :8443")
	go func() {
		if err := server.Start(":8443"); err != nil {
			log.Fatalln("error starting server: ", err.Error())
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	log.Println("stopping example marathon")
}

// seed registers a certra app (with a vhost label) and a marathon-lb app so a
// default-config agent run works out of the box.
func seed() {
	apps["/certra"] = &appState{
		ID:     "/certra",
		Labels: map[string]string{"HAPROXY_0_VHOST": "a.example.com,b.example.com"},
		Env:    map[string]string{},
	}
	apps["/marathon-lb"] = &appState{
		ID:      "/marathon-lb",
		Labels:  map[string]string{},
		Env:     map[string]string{},
		Secrets: map[string]json.RawMessage{"cred0": json.RawMessage(`{"source":"fake"}`)},
	}
}

func appID(c echo.Context) string {
	return "/" + c.Param("*")
}

func getApp(c echo.Context) error {
	mu.Lock()
	defer mu.Unlock()

	app, ok := apps[appID(c)]
	if !ok {
		return c.String(http.StatusNotFound, "app not found")
	}
	return c.JSON(http.StatusOK, map[string]any{"app": app})
}

func patchApp(c echo.Context) error {
	mu.Lock()
	defer mu.Unlock()

	app, ok := apps[appID(c)]
	if !ok {
		return c.String(http.StatusNotFound, "app not found")
	}

	var update appState
	if err := c.Bind(&update); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	app.Env = update.Env
	app.Secrets = update.Secrets

	deploymentID := utils.GenKSortedID("dep_")
	deployments[deploymentID] = time.Now().Add(deploymentLinger)
	return c.JSON(http.StatusOK, map[string]string{"deploymentId": deploymentID})
}

func listDeployments(c echo.Context) error {
	mu.Lock()
	defer mu.Unlock()

	inFlight := []map[string]string{}
	for id, until := range deployments {
		if time.Now().Before(until) {
			inFlight = append(inFlight, map[string]string{"id": id})
		} else {
			delete(deployments, id)
		}
	}
	return c.JSON(http.StatusOK, inFlight)
}
