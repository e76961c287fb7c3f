package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	appfraud "github.com/Zhima-Mochi/minishop-tracing/internal/application/fraud"
	appgw "github.com/Zhima-Mochi/minishop-tracing/internal/application/gateway"
	appinv "github.com/Zhima-Mochi/minishop-tracing/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/minishop-tracing/internal/application/order"
	apppay "github.com/Zhima-Mochi/minishop-tracing/internal/application/payment"
	appwh "github.com/Zhima-Mochi/minishop-tracing/internal/application/warehouse"
	"github.com/Zhima-Mochi/minishop-tracing/internal/config"
	domfraud "github.com/Zhima-Mochi/minishop-tracing/internal/domain/fraud"
	domorder "github.com/Zhima-Mochi/minishop-tracing/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-tracing/internal/infrastructure/client"
	"github.com/Zhima-Mochi/minishop-tracing/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-tracing/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-tracing/internal/infrastructure/rabbitmq"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
	httppresentation "github.com/Zhima-Mochi/minishop-tracing/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-tracing/internal/presentation/worker"
)

const amqpDialAttempts = 5

func (a *App) clientOptions(peer config.Role) client.Options {
	return client.Options{
		BaseURL:    a.cfg.Services[peer].URL,
		Timeout:    a.cfg.HopTimeout(peer),
		HTTPClient: a.opts.HTTPClient,
		Propagator: a.propagator,
	}
}

// buildRole wires one service: stores, downstream clients, use case, handler and router.
func (a *App) buildRole(ctx context.Context, role config.Role) (http.Handler, error) {
	tel := a.telemetry(role)
	rt := httppresentation.NewRouter(string(role), tel, a.propagator)
	rt.Mount("GET /metrics", a.metricsHandler())

	switch role {
	case config.RoleGateway:
		forwarder := client.NewOrderForwarder(a.clientOptions(config.RoleOrder), tel)
		httppresentation.NewGatewayHandler(appgw.NewSubmitOrderUseCase(forwarder, tel)).Register(rt)

	case config.RoleOrder:
		uc, err := a.buildOrder(ctx, tel)
		if err != nil {
			return nil, err
		}
		httppresentation.NewOrderHandler(uc).Register(rt)

	case config.RoleInventory:
		repo, err := a.stores.inventory(ctx)
		if err != nil {
			return nil, err
		}
		warehouse := client.NewWarehouseClient(a.clientOptions(config.RoleWarehouse), a.cfg.WarehouseLocation, tel)
		uc := appinv.NewCheckAndReserveUseCase(repo, warehouse, a.chaos(tel), tel)
		httppresentation.NewInventoryHandler(uc).Register(rt)

	case config.RoleWarehouse:
		repo, err := a.stores.warehouse(ctx)
		if err != nil {
			return nil, err
		}
		uc := appwh.NewReserveUseCase(repo, a.clock(), a.cfg.WarehouseLocation, tel)
		httppresentation.NewWarehouseHandler(uc).Register(rt)

	case config.RolePayment:
		ledger, err := a.stores.ledger(ctx)
		if err != nil {
			return nil, err
		}
		fraud := client.NewFraudClient(a.clientOptions(config.RoleFraud), a.cfg.FraudRetryAttempts, tel)
		httppresentation.NewPaymentHandler(apppay.NewAuthorizeUseCase(fraud, ledger, a.clock(), tel)).Register(rt)

	case config.RoleFraud:
		weights := domfraud.Weights{Fraud: a.cfg.FraudPercentage, Legit: a.cfg.NotFraudPercentage}
		uc, err := appfraud.NewEvaluateUseCase(weights, a.fraudSource(), tel)
		if err != nil {
			return nil, err
		}
		httppresentation.NewFraudHandler(uc).Register(rt)

	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
	return rt, nil
}

// buildOrder starts the order event bus with its subscribers: the partial-failure watcher and,
// when AMQP_URL is set, the RabbitMQ forwarder.
func (a *App) buildOrder(ctx context.Context, tel observability.Observability) (*apporder.CreateOrderUseCase, error) {
	repo, err := a.stores.orders()
	if err != nil {
		return nil, err
	}

	bus := outbox.NewBus(tel.Logger())
	bus.Start(ctx)
	sub := workerpresentation.NewSubscriber(bus, tel.Logger())

	apporder.NewPartialFailureWatcher(sub, tel).Start()

	if a.cfg.AMQPURL != "" {
		conn, ch, err := rabbitmq.SetupConn(a.cfg.AMQPURL, amqpDialAttempts, tel.Logger())
		if err != nil {
			bus.Stop(ctx)
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error {
			_ = ch.Close()
			return conn.Close()
		})
		rabbitmq.NewForwarder(ch, a.propagator, tel).Forward(sub,
			domorder.OrderCompletedEvent{}.EventName(),
			domorder.OrderFailedEvent{}.EventName(),
		)
	}
	a.closers = append(a.closers, func(ctx context.Context) error {
		bus.Stop(ctx)
		return nil
	})

	inventory := client.NewInventoryClient(a.clientOptions(config.RoleInventory), tel)
	payment := client.NewPaymentClient(a.clientOptions(config.RolePayment), tel)
	return apporder.NewCreateOrderUseCase(repo, inventory, payment, id.NewUUIDGenerator(), bus, tel), nil
}
