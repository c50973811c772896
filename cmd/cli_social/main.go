package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"youtrait/internal/changefeed"
	"youtrait/internal/changefeed/pgfeed"
	"youtrait/internal/changefeed/redisfeed"
	"youtrait/internal/config"
	"youtrait/internal/db"
	"youtrait/internal/domain"
	"youtrait/internal/events"
	"youtrait/internal/filter"
	"youtrait/internal/repository"
	"youtrait/internal/service"
)

// cli_social abre una sesión en vivo para un usuario existente y permite
// avalar, aprobar y reaccionar desde la terminal mientras imprime los eventos
// que llegan por el change feed.
func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	if err := db.Ping(ctx, pool); err != nil {
		log.Fatalf("db ping: %v", err)
	}

	userRepo := repository.NewPgUserRepository(pool)
	profileRepo := repository.NewPgProfileRepository(pool)
	traitRepo := repository.NewPgTraitRepository(pool)
	notificationRepo := repository.NewPgNotificationRepository(pool)
	bestieRepo := repository.NewPgBestieRepository(pool)
	reactionRepo := repository.NewPgReactionRepository(pool)

	feed, publisher, closeFeed, err := openFeed(cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer closeFeed()

	emitter := service.NewChangeEmitter(publisher, logger)
	traitSvc := service.NewTraitService(logger, traitRepo, profileRepo, notificationRepo, filter.Default(cfg.FilterExtraWords...), emitter)
	notificationSvc := service.NewNotificationService(logger, notificationRepo)
	writer := service.NewRealtimeWriter(logger, reactionRepo, bestieRepo, profileRepo, emitter)
	sessions := service.NewSessionRegistry(logger, feed, writer, service.SessionRepos{
		Users:         userRepo,
		Profiles:      profileRepo,
		Traits:        traitRepo,
		Notifications: notificationRepo,
		Besties:       bestieRepo,
	})
	defer sessions.Close()

	fmt.Print("Email del usuario: ")
	email, _ := reader.ReadString('\n')
	user, err := userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		log.Fatalf("buscar usuario: %v", err)
	}

	sess, err := sessions.Acquire(ctx, user.ID)
	if err != nil {
		log.Fatalf("abrir sesion: %v", err)
	}
	defer sessions.Release(user.ID)

	sub := sess.Bus.Subscribe(16)
	defer sub.Close()
	go printEvents(sub)

	if err := sess.Adapter.Connect(ctx, user.ID); err != nil {
		log.Fatalf("conectar realtime: %v", err)
	}

	for {
		fmt.Println("\n===== YouTrait =====")
		fmt.Printf("Notificaciones sin leer: %d\n", sess.Stores.Notifications.UnreadCount())
		fmt.Println("[1] Ver mis rasgos")
		fmt.Println("[2] Avalar a alguien")
		fmt.Println("[3] Bandeja de aprobacion")
		fmt.Println("[4] Notificaciones")
		fmt.Println("[5] Reaccionar a un rasgo")
		fmt.Println("[6] Solicitudes de bestie")
		fmt.Println("[7] Salir")
		fmt.Print("Selecciona una opcion: ")

		line, _ := reader.ReadString('\n')
		switch strings.TrimSpace(line) {
		case "1":
			printTraits(sess.Stores.Traits.Traits())
			stats := sess.Stores.Stats.Stats()
			fmt.Printf("Total %d, aprobados %d, pendientes %d, votos %d, dados %d\n",
				stats.TotalTraits, stats.ApprovedTraits, stats.PendingTraits, stats.TotalUpvotes, stats.TraitsGiven)
		case "2":
			if err := endorseFlow(ctx, reader, user.ID, profileRepo, traitSvc); err != nil {
				fmt.Printf("Error avalando: %v\n", err)
			} else {
				fmt.Println("Rasgo enviado. Queda pendiente hasta que lo aprueben.")
			}
		case "3":
			if err := approvalFlow(ctx, reader, user.ID, sess.Stores.Approval.PendingEndorsements(), traitSvc); err != nil {
				fmt.Printf("Error en bandeja: %v\n", err)
			}
		case "4":
			for _, n := range sess.Stores.Notifications.Notifications() {
				mark := " "
				if !n.Read {
					mark = "*"
				}
				fmt.Printf("%s %s: %s\n", mark, n.Title, n.Message)
			}
			if n, err := notificationSvc.MarkAllRead(ctx, user.ID); err == nil && n > 0 {
				sess.Stores.Notifications.MarkAllAsRead()
			}
		case "5":
			reactionFlow(ctx, reader, sess)
		case "6":
			bestieFlow(ctx, reader, profileRepo, sess)
		case "7":
			return
		default:
			fmt.Println("Opcion invalida.")
		}
	}
}

func openFeed(cfg *config.Config, logger *zap.Logger) (changefeed.Feed, changefeed.Publisher, func(), error) {
	switch cfg.ChangeFeedDriver {
	case config.ChangeFeedRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		f := redisfeed.New(client, cfg.ChangeFeedRedisPrefix, logger)
		return f, f, func() { _ = client.Close() }, nil
	case config.ChangeFeedPostgres:
		return pgfeed.New(cfg.DatabaseURL, cfg.ChangeFeedChannel, logger), nil, func() {}, nil
	default:
		return nil, nil, nil, fmt.Errorf("driver %q no sirve entre procesos", cfg.ChangeFeedDriver)
	}
}

func printEvents(sub *events.Subscription) {
	for ev := range sub.C() {
		switch ev.Kind {
		case events.KindFloatingNotification:
			fmt.Printf("\n>> [%s] %s\n", ev.Notification.Type, ev.Notification.Message)
		case events.KindTraitReaction:
			fmt.Printf("\n>> %s sobre el rasgo %s\n", ev.Reaction.Emoji, ev.Reaction.TraitID)
		}
	}
}

func printTraits(traits []domain.Trait) {
	if len(traits) == 0 {
		fmt.Println("Todavia no tienes rasgos.")
		return
	}
	for i, t := range traits {
		fmt.Printf("[%d] %s (%s, %s) +%d\n", i+1, t.Word, t.Category, t.Status, t.Upvotes)
	}
}

func endorseFlow(ctx context.Context, reader *bufio.Reader, userID string, profiles repository.ProfileRepository, traits *service.TraitService) error {
	fmt.Print("Username destino: ")
	username, _ := reader.ReadString('\n')
	target, err := profiles.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return fmt.Errorf("buscar perfil: %w", err)
	}
	fmt.Print("Palabra: ")
	word, _ := reader.ReadString('\n')
	fmt.Print("Categoria (mind/heart/social, vacio para sugerir): ")
	category, _ := reader.ReadString('\n')

	_, err = traits.Endorse(ctx, userID, service.EndorseInput{
		TargetUserID: target.ID,
		Word:         strings.TrimSpace(word),
		Category:     strings.TrimSpace(category),
	})
	return err
}

func approvalFlow(ctx context.Context, reader *bufio.Reader, userID string, pending []domain.Trait, traits *service.TraitService) error {
	if len(pending) == 0 {
		fmt.Println("No hay rasgos pendientes.")
		return nil
	}
	printTraits(pending)
	idx := readIntDefault(reader, "Numero de rasgo (0 para volver): ", 0)
	if idx < 1 || idx > len(pending) {
		return nil
	}
	fmt.Print("[A]probar o [R]echazar: ")
	choice, _ := reader.ReadString('\n')
	switch strings.ToUpper(strings.TrimSpace(choice)) {
	case "A":
		_, err := traits.Approve(ctx, userID, pending[idx-1].ID)
		return err
	case "R":
		_, err := traits.Reject(ctx, userID, pending[idx-1].ID)
		return err
	default:
		return errors.New("opcion invalida")
	}
}

func reactionFlow(ctx context.Context, reader *bufio.Reader, sess *service.Session) {
	traits := sess.Stores.Traits.Traits()
	printTraits(traits)
	idx := readIntDefault(reader, "Numero de rasgo: ", 0)
	if idx < 1 || idx > len(traits) {
		fmt.Println("Seleccion invalida.")
		return
	}
	fmt.Print("Emoji: ")
	emoji, _ := reader.ReadString('\n')
	sess.Adapter.SendReaction(ctx, traits[idx-1].ID, strings.TrimSpace(emoji), events.Position{X: 50, Y: 50})
}

func bestieFlow(ctx context.Context, reader *bufio.Reader, profiles repository.ProfileRepository, sess *service.Session) {
	pending := sess.Stores.Besties.PendingRequests()
	for i, r := range pending {
		fmt.Printf("[%d] de %s: %s\n", i+1, r.RequesterID, r.Message)
	}
	fmt.Println("[N] Nueva solicitud")
	fmt.Print("Selecciona: ")
	choice, _ := reader.ReadString('\n')
	choice = strings.TrimSpace(choice)

	if strings.EqualFold(choice, "N") {
		fmt.Print("Username: ")
		username, _ := reader.ReadString('\n')
		target, err := profiles.GetByUsername(ctx, strings.TrimSpace(username))
		if err != nil {
			fmt.Printf("Perfil no encontrado: %v\n", err)
			return
		}
		fmt.Print("Mensaje: ")
		msg, _ := reader.ReadString('\n')
		sess.Adapter.SendBestieRequest(ctx, target.ID, strings.TrimSpace(msg))
		return
	}

	idx, err := strconv.Atoi(choice)
	if err != nil || idx < 1 || idx > len(pending) {
		fmt.Println("Seleccion invalida.")
		return
	}
	fmt.Print("[A]ceptar o [R]echazar: ")
	answer, _ := reader.ReadString('\n')
	status := domain.BestieStatusRejected
	if strings.EqualFold(strings.TrimSpace(answer), "A") {
		status = domain.BestieStatusAccepted
	}
	sess.Adapter.RespondToBestieRequest(ctx, pending[idx-1].ID, status)
}

func readIntDefault(reader *bufio.Reader, prompt string, def int) int {
	fmt.Print(prompt)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	if v, err := strconv.Atoi(line); err == nil {
		return v
	}
	return def
}
