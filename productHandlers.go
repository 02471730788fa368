package main

import (
	"net/http"

	"bitbucket.org/mmdatafocus/exhibition_backend/config"
	"bitbucket.org/mmdatafocus/exhibition_backend/models"
	"github.com/gin-gonic/gin"
)

func listProductsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := models.ListProducts(c.Request.Context(), c.Query("search"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

func getProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		productId, ok := idParam(c, "id")
		if !ok {
			return
		}
		product, err := models.GetProductById(c.Request.Context(), productId)
		if err != nil {
			respondError(c, err)
			return
		}
		if product.IsActive == nil || !*product.IsActive {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

// createProductHandler accepts multipart form data so the catalog image can
// ride along with the fields.
func createProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		var input models.NewProduct
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		imageUrl := ""
		if file, err := c.FormFile("image"); err == nil {
			url, err := saveProductImage(logger, file)
			if err != nil {
				respondError(c, err)
				return
			}
			imageUrl = url
		}

		product, err := models.CreateProduct(c.Request.Context(), &input, imageUrl)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func updateProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		productId, ok := idParam(c, "id")
		if !ok {
			return
		}

		var input models.UpdateProduct
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		imageUrl := ""
		if file, err := c.FormFile("image"); err == nil {
			url, err := saveProductImage(logger, file)
			if err != nil {
				respondError(c, err)
				return
			}
			imageUrl = url
		}

		product, err := models.EditProduct(c.Request.Context(), productId, &input, imageUrl)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func deleteProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		productId, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := models.DeleteProduct(c.Request.Context(), productId); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
	}
}

func listCategoriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := models.ListProductCategories(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

func createCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewProductCategory
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
		category, err := models.CreateProductCategory(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

func deleteCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryId, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := models.DeleteProductCategory(c.Request.Context(), categoryId); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
	}
}
