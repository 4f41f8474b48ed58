package notifier

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"betfin/events"
	"betfin/models"
	"betfin/slots"
)

// Embed colors
const (
	colorSuccess = 0x2ECC71
	colorGold    = 0xF1C40F
)

// Config holds notifier configuration
type Config struct {
	Token     string
	ChannelID string
}

// Notifier announces big wins and unlocked achievements to a Discord
// channel. Purely an observer; game flow never depends on it.
type Notifier struct {
	config  Config
	session *discordgo.Session
}

// New creates a notifier and subscribes it to the event bus
func New(config Config, eventBus *events.Bus) (*Notifier, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	n := &Notifier{
		config:  config,
		session: dg,
	}

	eventBus.Subscribe(events.EventTypeSessionCompleted, func(ctx context.Context, event events.Event) {
		if completed, ok := event.(events.SessionCompletedEvent); ok {
			n.announceCompletion(completed)
		}
	})
	eventBus.Subscribe(events.EventTypeAchievementUnlocked, func(ctx context.Context, event events.Event) {
		if unlocked, ok := event.(events.AchievementUnlockedEvent); ok {
			n.announceAchievement(unlocked)
		}
	})

	log.Info("Discord notifier connected")
	return n, nil
}

// Close shuts down the underlying Discord session
func (n *Notifier) Close() error {
	return n.session.Close()
}

// announceCompletion posts wins worth announcing. Ordinary wins and all
// losses stay quiet.
func (n *Notifier) announceCompletion(event events.SessionCompletedEvent) {
	if event.Result != models.OutcomeWin || event.Wagered.Sign() <= 0 {
		return
	}

	class := slots.ClassifyPayout(event.Winnings, event.Wagered)
	if class != slots.JackpotWin && class != slots.BigWin {
		return
	}

	title := "💰 **BIG WIN!** 💰"
	color := colorSuccess
	if class == slots.JackpotWin {
		title = "🎰 **JACKPOT!** 🎰"
		color = colorGold
	}

	embed := &discordgo.MessageEmbed{
		Title: title,
		Description: fmt.Sprintf("%s won **%s ETH** at %s (%sx)",
			shortenAccount(event.Account),
			event.Winnings.String(),
			event.Game,
			event.Winnings.DivRound(event.Wagered, 0).String()),
		Color: color,
	}

	if _, err := n.session.ChannelMessageSendEmbed(n.config.ChannelID, embed); err != nil {
		log.WithError(err).Warn("Failed to announce win")
	}
}

func (n *Notifier) announceAchievement(event events.AchievementUnlockedEvent) {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s **Achievement Unlocked!**", event.Icon),
		Description: fmt.Sprintf("%s earned **%s**\n%s", shortenAccount(event.Account), event.Name, event.Description),
		Color:       colorGold,
	}

	if _, err := n.session.ChannelMessageSendEmbed(n.config.ChannelID, embed); err != nil {
		log.WithError(err).Warn("Failed to announce achievement")
	}
}

// shortenAccount renders an address as 0x1234...abcd
func shortenAccount(account string) string {
	if len(account) <= 10 {
		return account
	}
	return account[:6] + "..." + account[len(account)-4:]
}
