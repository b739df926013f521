package http

import (
	"github.com/gin-gonic/gin"
	"github.com/iyhunko/product-manager/internal/config"
	"github.com/iyhunko/product-manager/internal/http/controller"
	"github.com/iyhunko/product-manager/internal/http/middleware"
)

// InitRouter registers middleware, the health check and the product API under the configured base path.
func InitRouter(conf *config.Config, server *gin.Engine, ctr *controller.Controller, productCtr *controller.ProductController) *gin.Engine {
	server.Use(
		middleware.RequestID(),
		middleware.Logger(),
		// recovery sits inside the logger so panics are logged with their 500 status
		middleware.Recovery(),
		middleware.CORS(conf.HTTPServer.AllowedOrigins),
	)

	server.GET("/health", ctr.Ping)

	api := server.Group(conf.HTTPServer.BasePath)
	products := api.Group("/products")
	{
		products.GET("", productCtr.ListProducts)
		products.GET("/search", productCtr.SearchProducts)
		products.GET("/:id", productCtr.GetProduct)
		products.POST("", productCtr.CreateProduct)
		products.PUT("/:id", productCtr.UpdateProduct)
		products.DELETE("/:id", productCtr.DeleteProduct)
	}

	return server
}
