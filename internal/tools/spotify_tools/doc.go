// Package spotify_tools controls playback on the owner's Spotify account.
package spotify_tools
