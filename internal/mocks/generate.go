package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name RemoteDataSource --dir ../usecase --output usecase --outpkg usecasemock --filename remote_data_source_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Refresher --dir ../usecase --output usecase --outpkg usecasemock --filename refresher_mock.go
