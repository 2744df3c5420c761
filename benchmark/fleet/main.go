package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"

	presenceGrpc "liyu1981.xyz/field-presence-service/pkg/grpc"
)

var maxEmployees int = 200
var rounds int = 5
var httpHostPort string = "127.0.0.1:4000"
var grpcHostPort string = "127.0.0.1:4001"

var rnd *rand.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
var rndMu sync.Mutex

var client = resty.New().SetTimeout(10 * time.Second)

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

type registered struct {
	Tokens struct {
		AccessToken string `json:"accessToken"`
	} `json:"tokens"`
}

type walker struct {
	employeeID string
	token      string
	lat, lon   float64
	conn       *websocket.Conn
}

func main() {
	managerToken := os.Getenv("FLEET_MANAGER_TOKEN")
	if managerToken == "" {
		log.Fatal("FLEET_MANAGER_TOKEN is required, run cmd/seed to get one")
	}

	resp, err := client.R().Get(fmt.Sprintf("http://%s/healthz", httpHostPort))
	if err != nil || !resp.IsSuccess() {
		log.Fatal("HTTP server not available:", err)
	}
	fmt.Printf("http server verified\n")

	var received atomic.Int64
	managerConn := dialManager(managerToken, &received)
	defer managerConn.Close()

	var startTime time.Time
	var usedTime time.Duration

	walkers := make([]*walker, maxEmployees)
	startTime = time.Now()
	wg := sync.WaitGroup{}
	for i := range maxEmployees {
		wg.Add(1)
		go func() {
			defer wg.Done()
			walkers[i] = enroll(managerToken, i)
			fmt.Printf("\renrolled employee %v", i)
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	fmt.Printf(
		"\renrolled %v employees: used time=%v seconds, throughput=%v action/second\n",
		maxEmployees, usedTime.Seconds(), float64(maxEmployees*3)/usedTime.Seconds(),
	)

	var failed atomic.Int64
	startTime = time.Now()
	wg = sync.WaitGroup{}
	for _, w := range walkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range rounds {
				if err := w.step(); err != nil {
					failed.Add(1)
				}
				time.Sleep(time.Duration(100+randInt(500)) * time.Millisecond)
			}
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	actions := maxEmployees * rounds * 2
	fmt.Printf(
		"did %v actions: used time=%v seconds, throughput=%v action/second, failed=%v\n",
		actions, usedTime.Seconds(), float64(actions)/usedTime.Seconds(), failed.Load(),
	)

	time.Sleep(time.Second)
	fmt.Printf("manager received %v events\n", received.Load())

	for _, w := range walkers {
		w.conn.Close()
	}

	printStats(managerToken)
}

func randInt(n int) int {
	rndMu.Lock()
	defer rndMu.Unlock()
	return rnd.Intn(n)
}

func rndFloat64(min, max float64, decimal int) float64 {
	rndMu.Lock()
	val := min + rnd.Float64()*(max-min)
	rndMu.Unlock()
	multiplier := math.Pow10(decimal)
	return math.Round(val*multiplier) / multiplier
}

func dialManager(token string, received *atomic.Int64) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/ws/manager?token=%s", httpHostPort, token), nil)
	if err != nil {
		log.Fatal("Failed to open manager channel:", err)
	}
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			received.Add(1)
		}
	}()
	return conn
}

// enroll creates an employee, registers a device and opens its socket.
func enroll(managerToken string, i int) *walker {
	employeeID := "FLEET-" + uuid.NewString()[:8]

	resp, err := client.R().
		SetAuthToken(managerToken).
		SetBody(map[string]string{
			"id":         employeeID,
			"fullName":   fmt.Sprintf("Fleet Walker %d", i),
			"department": "Fleet",
		}).
		Post(fmt.Sprintf("http://%s/api/employees", httpHostPort))
	if err != nil || !resp.IsSuccess() {
		panic(fmt.Sprintf("create employee: err=%v, resp=%v", err, resp))
	}

	var result envelope[registered]
	resp, err = client.R().
		SetBody(map[string]string{"employeeId": employeeID, "platform": "android"}).
		SetResult(&result).
		Post(fmt.Sprintf("http://%s/api/auth/device", httpHostPort))
	if err != nil || !resp.IsSuccess() {
		panic(fmt.Sprintf("register device: err=%v, resp=%v", err, resp))
	}

	token := result.Data.Tokens.AccessToken
	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/ws/employee?token=%s", httpHostPort, token), nil)
	if err != nil {
		panic(err)
	}
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return &walker{
		employeeID: employeeID,
		token:      token,
		lat:        rndFloat64(37.70, 37.80, 6),
		lon:        rndFloat64(-122.50, -122.40, 6),
		conn:       conn,
	}
}

// step moves the walker a little, posts the location and heartbeats over the socket.
func (w *walker) step() error {
	w.lat += rndFloat64(-0.001, 0.001, 6)
	w.lon += rndFloat64(-0.001, 0.001, 6)

	resp, err := client.R().
		SetAuthToken(w.token).
		SetBody(map[string]any{
			"latitude":  w.lat,
			"longitude": w.lon,
			"accuracy":  rndFloat64(3, 30, 1),
			"battery":   50 + randInt(50),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}).
		Post(fmt.Sprintf("http://%s/api/location", httpHostPort))
	if err != nil {
		fmt.Printf("\nerror: %v\n", err)
		return err
	}
	if !resp.IsSuccess() {
		fmt.Printf("\nresponse status code != 200: %v\n", resp.Status())
		return fmt.Errorf("status %d", resp.StatusCode())
	}

	return w.conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"heartbeat"}`))
}

func printStats(managerToken string) {
	if strings.TrimSpace(grpcHostPort) == "" {
		return
	}

	conn, err := grpc.NewClient(grpcHostPort, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		fmt.Printf("grpc unavailable: %v\n", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+managerToken)

	stats, err := presenceGrpc.NewPresenceQueryClient(conn).GetStats(ctx, &emptypb.Empty{})
	if err != nil {
		fmt.Printf("grpc stats failed: %v\n", err)
		return
	}
	fmt.Printf("server stats: %v\n", stats.AsMap())
}
