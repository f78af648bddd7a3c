package handler

// Server 集中所有 handler 給 router 使用
type Server struct {
	UserHandler    *UserHandler
	ProductHandler *ProductHandler
	CartHandler    *CartHandler
	OrderHandler   *OrderHandler
	AddressHandler *AddressHandler
	HealthHandler  *HealthHandler
}

func NewServer(
	userHandler *UserHandler,
	productHandler *ProductHandler,
	cartHandler *CartHandler,
	orderHandler *OrderHandler,
	addressHandler *AddressHandler,
	healthHandler *HealthHandler,
) *Server {
	return &Server{
		UserHandler:    userHandler,
		ProductHandler: productHandler,
		CartHandler:    cartHandler,
		OrderHandler:   orderHandler,
		AddressHandler: addressHandler,
		HealthHandler:  healthHandler,
	}
}
