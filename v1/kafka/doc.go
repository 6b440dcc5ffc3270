// Package kafka produces and consumes Kafka messages whose values are framed
// in the schema registry wire format.
//
// The client wraps segmentio/kafka-go. A producer client owns a writer, a
// consumer client (Config.IsConsumer) owns a reader. Values pass through a
// Serializer on the way out and a Deserializer on the way in. The
// RegistrySerializer implements both on top of a *schema_registry.Registry:
// it encodes with Config.Schema.ID, or with the latest id of
// Config.Schema.Subject, and decodes with whatever id the message carries.
//
// Producing:
//
//	registry, _ := schema_registry.New(api)
//	client, err := kafka.NewClient(kafka.Config{
//	    Brokers: []string{"localhost:9092"},
//	    Topic:   "orders",
//	    Schema:  kafka.SchemaConfig{Subject: "orders-value"},
//	})
//	if err != nil {
//	    return err
//	}
//	rs, _ := kafka.NewRegistrySerializer(registry, kafka.SchemaConfig{Subject: "orders-value"}, nil)
//	client.WithSerializer(rs)
//	err = client.Publish(ctx, "order-1", map[string]interface{}{"id": 1})
//
// Consuming:
//
//	var wg sync.WaitGroup
//	for msg := range client.Consume(ctx, &wg) {
//	    value, err := msg.Value()
//	    if err != nil {
//	        // the body is not registry framed or its schema is unknown
//	        continue
//	    }
//	    handle(msg.Context(), value)
//	    _ = msg.CommitMsg()
//	}
//	wg.Wait()
//
// Publish injects the W3C trace context into the message headers and each
// consumed Message carries it back in Context, so the consumer's spans, the
// registry decode included, join the producer's trace.
//
// Errors from the broker can be matched with errors.Is against the sentinels
// of this package after TranslateError; Publish already translates them.
// IsPermanentError treats schema validation failures as permanent.
//
// FX usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    schema_registry.FXModule,
//	    kafka.FXModule,
//	    fx.Provide(
//	        loadConfigs,
//	        func(l logger.Logger) kafka.Logger { return l },
//	    ),
//	)
//
// With a registry in the graph the module installs a RegistrySerializer, and
// with a prometheus.Registerer it counts messages in
// kafka_serializer_messages_total{direction,status}.
package kafka
