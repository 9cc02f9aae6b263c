// callprobe 以一个通话端点的身份连上实时通道：-target 非空时主动呼叫，否则等待来电
//
//	callprobe -server http://localhost:5001 -token <access token> -target U123 -hold 15s
package main

import (
	"flag"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pulse_chat_server/internal/dto/event"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func main() {
	server := flag.String("server", "http://localhost:5001", "server base url")
	token := flag.String("token", "", "access token")
	target := flag.String("target", "", "user id to call; empty waits for incoming calls")
	callType := flag.String("type", event.CallTypeAudio, "audio or video")
	hold := flag.Duration("hold", 10*time.Second, "hang up this long after the media connects")
	decline := flag.Bool("decline", false, "decline incoming calls instead of answering")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	if *token == "" {
		zap.L().Fatal("-token is required")
	}

	iceServers := fetchIceServers(*server, *token)
	conn, err := dial(*server, *token)
	if err != nil {
		zap.L().Fatal("websocket dial failed", zap.Error(err))
	}
	defer conn.Close()

	p := newProbe(conn, iceServers, *callType, *hold, *decline)
	p.dialing = *target != ""
	go p.readLoop()

	if *target != "" {
		if err := p.call(*target); err != nil {
			zap.L().Fatal("call failed", zap.Error(err))
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		p.hangup("ended")
	case <-p.done:
	}
}

func dial(server, token string) (*websocket.Conn, error) {
	u, err := url.Parse(server)
	if err != nil {
		return nil, err
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/ws"

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), header)
	if resp != nil && resp.StatusCode == http.StatusUnauthorized {
		zap.L().Error("handshake rejected", zap.Int("status", resp.StatusCode))
	}
	return conn, err
}
