package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/spf13/viper"

	"github.com/jaz35-hue/soundmatch/config"
	"github.com/jaz35-hue/soundmatch/db"
	"github.com/jaz35-hue/soundmatch/oauth"
	"github.com/jaz35-hue/soundmatch/service/lastfm"
	"github.com/jaz35-hue/soundmatch/service/recommend"
	"github.com/jaz35-hue/soundmatch/service/spotify"
	"github.com/jaz35-hue/soundmatch/service/youtube"
	"github.com/jaz35-hue/soundmatch/session"
)

type application struct {
	database       *db.DB
	sessionManager *session.SessionManager
	oauthManager   *oauth.OAuthServiceManager
	spotifyService *spotify.Service
	lastfmService  *lastfm.Service
	youtubeService *youtube.Service
	engine         *recommend.Engine
}

func main() {
	config.Load()

	database, err := db.New(viper.GetString("db.path"))
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	if err := database.Initialize(); err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}

	sessionManager := session.NewSessionManager(database)

	spotifyService := spotify.NewService(
		database,
		viper.GetString("spotify.client_id"),
		viper.GetString("spotify.client_secret"),
	)
	lastfmService := lastfm.NewService(viper.GetString("lastfm.api_key"))
	youtubeService := youtube.NewService(viper.GetString("youtube.api_key"))

	engine := recommend.NewEngine(spotifyService, lastfmService)

	oauthManager := oauth.NewOAuthServiceManager(sessionManager)
	spotifyOAuth := oauth.NewOAuth2Service(
		viper.GetString("spotify.client_id"),
		viper.GetString("spotify.client_secret"),
		viper.GetString("callback.spotify"),
		viper.GetStringSlice("spotify.scopes"),
		"spotify",
		spotifyService,
	)
	oauthManager.RegisterService("spotify", spotifyOAuth)

	app := &application{
		database:       database,
		sessionManager: sessionManager,
		oauthManager:   oauthManager,
		spotifyService: spotifyService,
		lastfmService:  lastfmService,
		youtubeService: youtubeService,
		engine:         engine,
	}

	if !lastfmService.Enabled() {
		log.Println("Last.fm API key not configured; recommendations will rely on catalog search only.")
	}
	if !youtubeService.Enabled() {
		log.Println("YouTube API key not configured; saved tracks will not be enriched with videos.")
	}

	serverAddr := fmt.Sprintf("%s:%s", viper.GetString("server.host"), viper.GetString("server.port"))
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	fmt.Printf("Server running at: http://%s\n", serverAddr)
	log.Fatal(server.ListenAndServe())
}
